// Package mediafield implements the per-media-kind field controllers
// behind the add/edit work and avatar/banner flows. Each controller
// owns the transient selection state for one media kind (file +
// crop for images, URL + preview readiness for video/audio) and
// exposes the same finalize/clear contract to its orchestrator. A
// controller performs no network I/O; the orchestrator does the
// actual uploading.
package mediafield

import (
	"context"

	"artlink_backend/internal/models"
)

// FinalizedMedia is the payload a controller hands its orchestrator
// at save time. Uploaded images carry encoded bytes plus their
// destination storage paths; linked media carries only the
// normalized external URL.
type FinalizedMedia struct {
	MediaType   models.MediaType
	MediaSource models.MediaSource

	// Linked media
	SourceURL string

	// Uploads
	StoragePath string
	ThumbPath   string
	Data        []byte
	ThumbData   []byte
	ContentType string
}

// Controller is the capability contract shared by the three field
// variants. The orchestrator holds whichever controller matches the
// active media kind and calls Finalize at save time.
type Controller interface {
	// MediaType reports the media kind this controller owns.
	MediaType() models.MediaType

	// Finalize produces the save payload. It fails with
	// apperrors.ErrMediaNotReady while the controller's validity
	// preconditions are unmet.
	Finalize(ctx context.Context) (*FinalizedMedia, error)

	// CurrentRawInput returns the original selection (file name or
	// pasted URL) for change detection in edit flows.
	CurrentRawInput() string

	// Clear resets all transient state.
	Clear()

	// Valid reports whether the selection can be saved.
	Valid() bool
}

// validityNotifier tracks validity transitions and invokes the
// configured callback only when the value actually changes.
type validityNotifier struct {
	valid    bool
	callback func(bool)
}

func (n *validityNotifier) set(valid bool) {
	if n.valid == valid {
		return
	}
	n.valid = valid
	if n.callback != nil {
		n.callback(valid)
	}
}

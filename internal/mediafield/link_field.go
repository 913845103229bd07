package mediafield

import (
	"context"
	"sync"
	"time"

	"artlink_backend/internal/mediaurl"
	"artlink_backend/internal/models"
	"artlink_backend/pkg/apperrors"
)

// LinkFieldConfig wires one video or audio field controller.
type LinkFieldConfig struct {
	MediaType models.MediaType
	Validate  func(string) mediaurl.Result

	// SkeletonTimeout hides the preview loading skeleton when the
	// provider never fires a ready event. A timeout is not an error:
	// embed players are third-party iframes subject to CORS and
	// transient network failures unrelated to URL correctness.
	SkeletonTimeout time.Duration

	// RequirePreviewConfirmation additionally gates validity on an
	// observed playback-ready signal before enabling save.
	RequirePreviewConfirmation bool

	OnValidity func(bool)
}

// LinkField owns the URL + preview-readiness state for linked video
// and audio media. Validity is primarily URL-pattern based; preview
// loading drives the skeleton, not (by default) saveability.
type LinkField struct {
	mu  sync.Mutex
	cfg LinkFieldConfig

	raw    string
	result mediaurl.Result

	skeletonVisible bool
	previewStarted  bool
	advisory        string
	timer           *time.Timer

	notifier validityNotifier
}

// NewLinkField builds a link field controller.
func NewLinkField(cfg LinkFieldConfig) *LinkField {
	if cfg.SkeletonTimeout == 0 {
		cfg.SkeletonTimeout = 3 * time.Second
	}
	return &LinkField{
		cfg:      cfg,
		notifier: validityNotifier{callback: cfg.OnValidity},
	}
}

// NewVideoField builds the video variant on the video URL validator.
func NewVideoField(timeout time.Duration, onValidity func(bool)) *LinkField {
	return NewLinkField(LinkFieldConfig{
		MediaType:       models.MediaTypeVideo,
		Validate:        mediaurl.ValidateVideoURL,
		SkeletonTimeout: timeout,
		OnValidity:      onValidity,
	})
}

// NewAudioField builds the audio variant on the audio URL validator.
func NewAudioField(timeout time.Duration, requireConfirmation bool, onValidity func(bool)) *LinkField {
	return NewLinkField(LinkFieldConfig{
		MediaType:                  models.MediaTypeAudio,
		Validate:                   mediaurl.ValidateAudioURL,
		SkeletonTimeout:            timeout,
		RequirePreviewConfirmation: requireConfirmation,
		OnValidity:                 onValidity,
	})
}

func (f *LinkField) MediaType() models.MediaType { return f.cfg.MediaType }

// SetURL validates the pasted URL and, when it matches a provider
// shape, restarts the preview-loading skeleton.
func (f *LinkField) SetURL(raw string) mediaurl.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.raw = raw
	f.result = f.cfg.Validate(raw)
	f.previewStarted = false
	f.advisory = ""

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}

	if f.result.Valid {
		f.skeletonVisible = true
		f.timer = time.AfterFunc(f.cfg.SkeletonTimeout, f.onSkeletonTimeout)
	} else {
		f.skeletonVisible = false
	}

	f.recomputeValidityLocked()
	return f.result
}

// Reinitialize resets all transient state and re-validates from
// scratch against a new initial URL, as when the parent switches
// which existing Work is being edited.
func (f *LinkField) Reinitialize(initialURL string) {
	f.Clear()
	if initialURL != "" {
		f.SetURL(initialURL)
	}
}

// onSkeletonTimeout hides the skeleton without treating the silence
// as an error.
func (f *LinkField) onSkeletonTimeout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skeletonVisible = false
	f.timer = nil
}

// NotifyProviderReady records a provider-fired ready/playback event.
func (f *LinkField) NotifyProviderReady() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.previewStarted = true
	f.skeletonVisible = false
	f.advisory = ""
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.recomputeValidityLocked()
}

// NotifyProviderError records a genuine provider error event. The
// message is a non-blocking advisory: a pattern-valid URL stays
// saveable unless preview confirmation is required.
func (f *LinkField) NotifyProviderError(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if message == "" {
		message = "The provider couldn't load a preview for this link."
	}
	f.advisory = message
	f.skeletonVisible = false
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.recomputeValidityLocked()
}

// Finalize returns the normalized URL payload for a valid selection.
func (f *LinkField) Finalize(ctx context.Context) (*FinalizedMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.validLocked() {
		if f.result.Error != "" {
			return nil, apperrors.NewBadRequestError(f.result.Error)
		}
		return nil, apperrors.ErrMediaNotReady
	}

	return &FinalizedMedia{
		MediaType:   f.cfg.MediaType,
		MediaSource: f.result.Source,
		SourceURL:   mediaurl.Normalize(f.raw),
	}, nil
}

func (f *LinkField) CurrentRawInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.raw
}

// Clear resets everything, including any running skeleton timer.
func (f *LinkField) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.raw = ""
	f.result = mediaurl.Result{}
	f.skeletonVisible = false
	f.previewStarted = false
	f.advisory = ""
	f.recomputeValidityLocked()
}

func (f *LinkField) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validLocked()
}

func (f *LinkField) validLocked() bool {
	if !f.result.Valid {
		return false
	}
	if f.cfg.RequirePreviewConfirmation && !f.previewStarted {
		return false
	}
	return true
}

func (f *LinkField) recomputeValidityLocked() {
	f.notifier.set(f.validLocked())
}

// SkeletonVisible reports whether the preview loading skeleton is
// still showing.
func (f *LinkField) SkeletonVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.skeletonVisible
}

// Advisory returns the current non-blocking provider warning, empty
// when none.
func (f *LinkField) Advisory() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advisory
}

// ValidationError returns the rejection reason for an invalid URL.
func (f *LinkField) ValidationError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result.Error
}

// Package preview turns persisted works into render plans: which
// viewer to use, which URL feeds it, how long the loading skeleton
// may stay up, and what a timeout means for that media kind. The
// planner is pure; the state machine in machine.go tracks one
// viewer's loading lifecycle.
package preview

import (
	"time"

	"artlink_backend/internal/mediaurl"
	"artlink_backend/internal/models"
	"artlink_backend/pkg/apperrors"
)

// View selects the front-end viewer for a plan.
type View string

const (
	ViewImage       View = "image"        // native <img> from the thumbnail path
	ViewVideoEmbed  View = "video_embed"  // provider player (YouTube/Vimeo/Mux)
	ViewVideoDirect View = "video_direct" // native player on a direct file/stream URL
	ViewAudioEmbed  View = "audio_embed"  // sandboxed Spotify/SoundCloud iframe
)

// TimeoutPolicy states what an expired skeleton timeout means.
type TimeoutPolicy string

const (
	// TimeoutHidesSkeleton: stop showing the skeleton but do not
	// report an error; the media may still be loading.
	TimeoutHidesSkeleton TimeoutPolicy = "hide_skeleton"

	// TimeoutIsError: declare the media failed. Audio iframes either
	// load fast or not at all.
	TimeoutIsError TimeoutPolicy = "error"
)

// Key identifies one rendered work; a key change resets the state
// machine.
type Key struct {
	WorkID      string
	MediaType   models.MediaType
	MediaSource models.MediaSource
}

// Plan is everything the viewer needs to render one work.
type Plan struct {
	Key  Key
	View View

	// URL is the image thumbnail URL, the constructed embed URL, or
	// the direct media URL, depending on View.
	URL string

	// SourceURL is the original external URL for linked media.
	SourceURL string

	SkeletonTimeout time.Duration
	OnTimeout       TimeoutPolicy

	// Sandboxed marks iframes that must run with a restrictive
	// sandbox attribute.
	Sandboxed bool

	// CacheProbe enables the already-complete check that skips the
	// skeleton for repeat views of the same image.
	CacheProbe bool
}

// PlannerConfig carries the per-kind skeleton timeouts.
type PlannerConfig struct {
	ImageTimeout time.Duration
	VideoTimeout time.Duration
	AudioTimeout time.Duration
}

func (c *PlannerConfig) defaults() {
	if c.ImageTimeout == 0 {
		c.ImageTimeout = 4 * time.Second
	}
	if c.VideoTimeout == 0 {
		c.VideoTimeout = 3 * time.Second
	}
	if c.AudioTimeout == 0 {
		c.AudioTimeout = 1500 * time.Millisecond
	}
}

// Planner builds render plans from persisted works.
type Planner struct {
	cfg PlannerConfig
}

func NewPlanner(cfg PlannerConfig) *Planner {
	cfg.defaults()
	return &Planner{cfg: cfg}
}

// PlanFor maps one persisted work to its render plan.
func (p *Planner) PlanFor(w *models.Work) (*Plan, error) {
	key := Key{WorkID: w.ID, MediaType: w.MediaType, MediaSource: w.MediaSource}

	switch w.MediaType {
	case models.MediaTypeImage:
		return &Plan{
			Key:             key,
			View:            ViewImage,
			URL:             w.ThumbURL,
			SkeletonTimeout: p.cfg.ImageTimeout,
			OnTimeout:       TimeoutHidesSkeleton,
			CacheProbe:      true,
		}, nil

	case models.MediaTypeVideo:
		embed, err := mediaurl.VideoEmbedURL(w.MediaSource, w.SrcURL)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		view := ViewVideoEmbed
		if w.MediaSource == models.MediaSourceOtherURL {
			view = ViewVideoDirect
		}
		return &Plan{
			Key:             key,
			View:            view,
			URL:             embed,
			SourceURL:       w.SrcURL,
			SkeletonTimeout: p.cfg.VideoTimeout,
			OnTimeout:       TimeoutHidesSkeleton,
		}, nil

	case models.MediaTypeAudio:
		embed, err := mediaurl.AudioEmbedURL(w.MediaSource, w.SrcURL)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return &Plan{
			Key:             key,
			View:            ViewAudioEmbed,
			URL:             embed,
			SourceURL:       w.SrcURL,
			SkeletonTimeout: p.cfg.AudioTimeout,
			OnTimeout:       TimeoutIsError,
			Sandboxed:       true,
		}, nil
	}

	return nil, apperrors.ErrInvalidOperation("preview", "unknown media type")
}

package handlers

import (
	"image"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"artlink_backend/internal/config"
	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/services"
	"artlink_backend/internal/storage"
	"artlink_backend/pkg/apperrors"
)

// Draft kinds accepted by the open endpoint. Image kinds differ only
// in output geometry and storage category; video and audio are link
// fields.
const (
	DraftKindWork   = "work"
	DraftKindAvatar = "avatar"
	DraftKindBanner = "banner"
	DraftKindVideo  = "video"
	DraftKindAudio  = "audio"
)

// MediaDraftHandler manages in-progress media selections: a client
// opens a draft for a media kind, feeds it a file or URL, adjusts the
// crop, and later references the draft id from a work or profile save.
type MediaDraftHandler struct {
	*BaseHandler
	registry       *mediafield.Registry
	profileService services.ProfileService
	media          config.MediaConfig
}

func NewMediaDraftHandler(
	base *BaseHandler,
	registry *mediafield.Registry,
	profileService services.ProfileService,
	media config.MediaConfig,
) *MediaDraftHandler {
	return &MediaDraftHandler{
		BaseHandler:    base,
		registry:       registry,
		profileService: profileService,
		media:          media,
	}
}

func (h *MediaDraftHandler) RegisterRoutes(rg *gin.RouterGroup) {
	drafts := rg.Group("/media/drafts")
	{
		drafts.POST("", h.OpenDraft)
		drafts.GET("/:id", h.DraftStatus)
		drafts.DELETE("/:id", h.DiscardDraft)
		drafts.POST("/:id/file", h.UploadFile)
		drafts.PUT("/:id/crop", h.SetCrop)
		drafts.GET("/:id/preview", h.Preview)
		drafts.PUT("/:id/url", h.SetURL)
		drafts.POST("/:id/preview-ready", h.PreviewReady)
		drafts.POST("/:id/preview-error", h.PreviewError)
	}
}

type openDraftRequest struct {
	Kind string `json:"kind" validate:"required,oneof=work avatar banner video audio"`

	// Optional existing URL to seed a link field with, for edit flows.
	InitialURL string `json:"initial_url"`
}

type draftStatusResponse struct {
	DraftID         string `json:"draft_id,omitempty"`
	Kind            string `json:"kind,omitempty"`
	MediaType       string `json:"media_type"`
	Valid           bool   `json:"valid"`
	RawInput        string `json:"raw_input"`
	HasPreview      bool   `json:"has_preview,omitempty"`
	SkeletonVisible bool   `json:"skeleton_visible,omitempty"`
	Advisory        string `json:"advisory,omitempty"`
	ValidationError string `json:"validation_error,omitempty"`
}

// OpenDraft creates a fresh field controller for the requested kind
// and returns its draft id.
func (h *MediaDraftHandler) OpenDraft(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req openDraftRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	ctrl, err := h.buildController(req.Kind, profile.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if req.InitialURL != "" {
		if lf, ok := ctrl.(*mediafield.LinkField); ok {
			lf.Reinitialize(req.InitialURL)
		}
	}

	id := h.registry.Create(profile.ID, ctrl)
	c.JSON(http.StatusCreated, statusFor(id, req.Kind, ctrl))
}

// buildController maps a draft kind onto a configured field
// controller. Work images collapse to a single storage object; avatar
// and banner carry a distinct thumbnail variant.
func (h *MediaDraftHandler) buildController(kind, profileID string) (mediafield.Controller, error) {
	m := h.media
	debounce := time.Duration(m.PreviewDebounceMS) * time.Millisecond

	switch kind {
	case DraftKindWork:
		return mediafield.NewImageField(mediafield.ImageFieldConfig{
			OwnerID:      profileID,
			Kind:         "work",
			Category:     storage.CategoryArtworks,
			MaxDecodeDim: m.MaxDecodeDim,
			Quality:      m.JPEGQuality,
			OutputWidth:  m.WorkOutputWidth,
			OutputHeight: m.WorkOutputHeight,
			Debounce:     debounce,
		}), nil
	case DraftKindAvatar:
		return mediafield.NewImageField(mediafield.ImageFieldConfig{
			OwnerID:      profileID,
			Kind:         "avatar",
			Category:     storage.CategoryAvatars,
			MaxDecodeDim: m.MaxDecodeDim,
			Quality:      m.JPEGQuality,
			OutputWidth:  m.AvatarSize,
			OutputHeight: m.AvatarSize,
			ThumbWidth:   m.AvatarThumbSize,
			ThumbHeight:  m.AvatarThumbSize,
			Debounce:     debounce,
		}), nil
	case DraftKindBanner:
		return mediafield.NewImageField(mediafield.ImageFieldConfig{
			OwnerID:      profileID,
			Kind:         "banner",
			Category:     storage.CategoryBanners,
			MaxDecodeDim: m.MaxDecodeDim,
			Quality:      m.JPEGQuality,
			OutputWidth:  m.BannerWidth,
			OutputHeight: m.BannerHeight,
			ThumbWidth:   m.BannerThumbWidth,
			ThumbHeight:  m.BannerThumbHeight,
			Debounce:     debounce,
		}), nil
	case DraftKindVideo:
		timeout := time.Duration(m.VideoSkeletonTimeoutMS) * time.Millisecond
		return mediafield.NewVideoField(timeout, nil), nil
	case DraftKindAudio:
		timeout := time.Duration(m.AudioSkeletonTimeoutMS) * time.Millisecond
		return mediafield.NewAudioField(timeout, m.RequirePreviewConfirmation, nil), nil
	default:
		return nil, apperrors.NewBadRequestError("Unknown media draft kind: " + kind)
	}
}

// UploadFile feeds a multipart image file into an image draft.
func (h *MediaDraftHandler) UploadFile(c *gin.Context) {
	field, ok := h.imageDraft(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Missing file in multipart form"))
		return
	}
	if fileHeader.Size > h.media.MaxUploadBytes {
		h.HandleServiceError(c, apperrors.ErrFileTooLarge)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	defer f.Close()

	// The size header is client-supplied; the limited reader enforces
	// the cap against the actual stream.
	data, err := io.ReadAll(io.LimitReader(f, h.media.MaxUploadBytes+1))
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	if int64(len(data)) > h.media.MaxUploadBytes {
		h.HandleServiceError(c, apperrors.ErrFileTooLarge)
		return
	}

	if err := field.Select(fileHeader.Filename, data); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusFor("", "", field))
}

type setCropRequest struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width" validate:"required,gt=0"`
	Height int     `json:"height" validate:"required,gt=0"`
	Zoom   float64 `json:"zoom"`
}

// SetCrop commits a crop rectangle on an image draft. The preview
// regenerates shortly after; clients poll the preview endpoint.
func (h *MediaDraftHandler) SetCrop(c *gin.Context) {
	field, ok := h.imageDraft(c)
	if !ok {
		return
	}

	var req setCropRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	zoom := req.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	rect := image.Rect(req.X, req.Y, req.X+req.Width, req.Y+req.Height)
	if err := field.SetCrop(rect, zoom); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, statusFor("", "", field))
}

// Preview serves the latest generated preview JPEG, 204 while none
// has been produced yet.
func (h *MediaDraftHandler) Preview(c *gin.Context) {
	field, ok := h.imageDraft(c)
	if !ok {
		return
	}

	data := field.Preview()
	if data == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

type setURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// SetURL feeds a pasted URL into a link draft and reports the
// validation outcome. An invalid URL is a normal 200 response with
// is_valid false; the client shows the message inline.
func (h *MediaDraftHandler) SetURL(c *gin.Context) {
	field, ok := h.linkDraft(c)
	if !ok {
		return
	}

	var req setURLRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	field.SetURL(req.URL)
	c.JSON(http.StatusOK, statusFor("", "", field))
}

// PreviewReady records the provider's playback-ready signal relayed
// by the client.
func (h *MediaDraftHandler) PreviewReady(c *gin.Context) {
	field, ok := h.linkDraft(c)
	if !ok {
		return
	}
	field.NotifyProviderReady()
	c.JSON(http.StatusOK, statusFor("", "", field))
}

type previewErrorRequest struct {
	Message string `json:"message" validate:"max=300"`
}

// PreviewError records a provider error event. The draft stays
// pattern-valid; the message becomes a non-blocking advisory.
func (h *MediaDraftHandler) PreviewError(c *gin.Context) {
	field, ok := h.linkDraft(c)
	if !ok {
		return
	}

	var req previewErrorRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	field.NotifyProviderError(req.Message)
	c.JSON(http.StatusOK, statusFor("", "", field))
}

// DraftStatus reports validity and preview state for polling clients.
func (h *MediaDraftHandler) DraftStatus(c *gin.Context) {
	ctrl, ok := h.draft(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, statusFor("", "", ctrl))
}

// DiscardDraft drops the draft and its transient state.
func (h *MediaDraftHandler) DiscardDraft(c *gin.Context) {
	// Ownership check before the discard touches anything.
	if _, ok := h.draft(c); !ok {
		return
	}
	h.registry.Discard(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// draft resolves the caller's draft by id, enforcing ownership.
func (h *MediaDraftHandler) draft(c *gin.Context) (mediafield.Controller, bool) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return nil, false
	}

	ctrl, err := h.registry.GetOwned(c.Param("id"), profile.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return nil, false
	}
	return ctrl, true
}

func (h *MediaDraftHandler) imageDraft(c *gin.Context) (*mediafield.ImageField, bool) {
	ctrl, ok := h.draft(c)
	if !ok {
		return nil, false
	}
	field, ok := ctrl.(*mediafield.ImageField)
	if !ok {
		h.HandleServiceError(c, apperrors.ErrInvalidOperation("media", "draft does not accept file uploads"))
		return nil, false
	}
	return field, true
}

func (h *MediaDraftHandler) linkDraft(c *gin.Context) (*mediafield.LinkField, bool) {
	ctrl, ok := h.draft(c)
	if !ok {
		return nil, false
	}
	field, ok := ctrl.(*mediafield.LinkField)
	if !ok {
		h.HandleServiceError(c, apperrors.ErrInvalidOperation("media", "draft does not accept URLs"))
		return nil, false
	}
	return field, true
}

func (h *MediaDraftHandler) requireProfile(c *gin.Context) (*profileRef, bool) {
	return h.CurrentProfile(c, h.profileService)
}

func statusFor(id, kind string, ctrl mediafield.Controller) draftStatusResponse {
	resp := draftStatusResponse{
		DraftID:   id,
		Kind:      kind,
		MediaType: string(ctrl.MediaType()),
		Valid:     ctrl.Valid(),
		RawInput:  ctrl.CurrentRawInput(),
	}

	switch f := ctrl.(type) {
	case *mediafield.ImageField:
		resp.HasPreview = f.Preview() != nil
	case *mediafield.LinkField:
		resp.SkeletonVisible = f.SkeletonVisible()
		resp.Advisory = f.Advisory()
		resp.ValidationError = f.ValidationError()
	}
	return resp
}

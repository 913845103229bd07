package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/services"
	"artlink_backend/pkg/apperrors"
)

// WorkHandler exposes the portfolio CRUD surface. Media comes in as a
// draft id: the handler resolves the draft, finalizes it, and hands
// the payload to the work service, which uploads and persists it as
// one recoverable sequence.
type WorkHandler struct {
	*BaseHandler
	workService    services.WorkService
	profileService services.ProfileService
	registry       *mediafield.Registry
}

func NewWorkHandler(
	base *BaseHandler,
	workService services.WorkService,
	profileService services.ProfileService,
	registry *mediafield.Registry,
) *WorkHandler {
	return &WorkHandler{
		BaseHandler:    base,
		workService:    workService,
		profileService: profileService,
		registry:       registry,
	}
}

func (h *WorkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	works := rg.Group("/works")
	{
		works.GET("", h.ListWorks)
		works.POST("", h.CreateWork)
		works.PUT("/reorder", h.ReorderWorks)
		works.GET("/:id", h.GetWork)
		works.PUT("/:id", h.UpdateWork)
		works.DELETE("/:id", h.DeleteWork)
	}
}

type workRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=500"`

	// DraftID references an open media draft. Required on create;
	// optional on update, where omission means text-only changes.
	DraftID string `json:"draft_id"`
}

type reorderRequest struct {
	WorkIDs []string `json:"work_ids" validate:"required,min=1,dive,required"`
}

// ListWorks returns the caller's portfolio in display order.
func (h *WorkHandler) ListWorks(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	works, err := h.workService.ListWorks(h.GetDB(c), profile.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"works": works})
}

// GetWork returns one of the caller's works.
func (h *WorkHandler) GetWork(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	work, err := h.workService.GetWork(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if work.ProfileID != profile.ID {
		h.HandleServiceError(c, apperrors.NewForbiddenError("Work belongs to another profile"))
		return
	}
	c.JSON(http.StatusOK, work)
}

// CreateWork finalizes the referenced media draft and creates the
// work. The draft is discarded only after the save succeeds, so a
// failed save leaves the selection editable.
func (h *WorkHandler) CreateWork(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req workRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}
	if req.DraftID == "" {
		h.HandleServiceError(c, apperrors.FieldError("draft_id", "A media draft is required to create a work"))
		return
	}

	media, ok := h.finalizeDraft(c, profile.ID, req.DraftID)
	if !ok {
		return
	}

	work, err := h.workService.CreateWork(c.Request.Context(), h.GetDB(c), profile.ID, services.WorkTextInput{
		Title:       req.Title,
		Description: req.Description,
	}, media)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.registry.Discard(req.DraftID)
	c.JSON(http.StatusCreated, work)
}

// UpdateWork edits a work's text and, when a draft id is supplied,
// replaces its media.
func (h *WorkHandler) UpdateWork(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req workRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	workID := c.Param("id")

	existing, err := h.workService.GetWork(db, workID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if existing.ProfileID != profile.ID {
		h.HandleServiceError(c, apperrors.NewForbiddenError("Work belongs to another profile"))
		return
	}

	var media *mediafield.FinalizedMedia
	if req.DraftID != "" {
		media, ok = h.finalizeDraft(c, profile.ID, req.DraftID)
		if !ok {
			return
		}
	}

	work, err := h.workService.UpdateWork(c.Request.Context(), db, workID, services.WorkTextInput{
		Title:       req.Title,
		Description: req.Description,
	}, media)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if req.DraftID != "" {
		h.registry.Discard(req.DraftID)
	}
	c.JSON(http.StatusOK, work)
}

// DeleteWork removes a work along with its owned storage objects.
func (h *WorkHandler) DeleteWork(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	workID := c.Param("id")

	existing, err := h.workService.GetWork(db, workID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if existing.ProfileID != profile.ID {
		h.HandleServiceError(c, apperrors.NewForbiddenError("Work belongs to another profile"))
		return
	}

	if err := h.workService.DeleteWork(c.Request.Context(), db, workID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderWorks applies a full new ordering of the caller's portfolio.
func (h *WorkHandler) ReorderWorks(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req reorderRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.workService.ReorderWorks(c.Request.Context(), h.GetDB(c), profile.ID, req.WorkIDs); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkHandler) requireProfile(c *gin.Context) (*profileRef, bool) {
	return h.CurrentProfile(c, h.profileService)
}

// finalizeDraft resolves an owned draft and produces its save payload.
func (h *WorkHandler) finalizeDraft(c *gin.Context, profileID, draftID string) (*mediafield.FinalizedMedia, bool) {
	ctrl, err := h.registry.GetOwned(draftID, profileID)
	if err != nil {
		h.HandleServiceError(c, err)
		return nil, false
	}

	media, err := ctrl.Finalize(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return nil, false
	}
	return media, true
}

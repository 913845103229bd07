package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"artlink_backend/internal/services"
	"artlink_backend/pkg/apperrors"
)

// SocialLinkHandler manages a profile's ordered link collection.
type SocialLinkHandler struct {
	*BaseHandler
	linkService    services.SocialLinkService
	profileService services.ProfileService
}

func NewSocialLinkHandler(
	base *BaseHandler,
	linkService services.SocialLinkService,
	profileService services.ProfileService,
) *SocialLinkHandler {
	return &SocialLinkHandler{
		BaseHandler:    base,
		linkService:    linkService,
		profileService: profileService,
	}
}

func (h *SocialLinkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	links := rg.Group("/me/links")
	{
		links.GET("", h.ListLinks)
		links.POST("", h.AddLink)
		links.PUT("/reorder", h.ReorderLinks)
		links.PUT("/:id", h.UpdateLink)
		links.DELETE("/:id", h.DeleteLink)
	}
}

type reorderLinksRequest struct {
	LinkIDs []string `json:"link_ids" validate:"required,min=1,dive,required"`
}

func (h *SocialLinkHandler) ListLinks(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	links, err := h.linkService.ListLinks(h.GetDB(c), profile.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

func (h *SocialLinkHandler) AddLink(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var input services.SocialLinkInput
	if !h.BindAndValidateJSON(c, &input) {
		return
	}

	link, err := h.linkService.AddLink(c.Request.Context(), h.GetDB(c), profile.ID, input)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *SocialLinkHandler) UpdateLink(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var input services.SocialLinkInput
	if !h.BindAndValidateJSON(c, &input) {
		return
	}

	db := h.GetDB(c)
	linkID := c.Param("id")
	if !h.ownsLink(c, profile.ID, linkID) {
		return
	}

	link, err := h.linkService.UpdateLink(c.Request.Context(), db, linkID, input)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (h *SocialLinkHandler) DeleteLink(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	linkID := c.Param("id")
	if !h.ownsLink(c, profile.ID, linkID) {
		return
	}

	if err := h.linkService.DeleteLink(c.Request.Context(), h.GetDB(c), linkID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SocialLinkHandler) ReorderLinks(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req reorderLinksRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.linkService.ReorderLinks(c.Request.Context(), h.GetDB(c), profile.ID, req.LinkIDs); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownsLink verifies the target link belongs to the caller's profile.
func (h *SocialLinkHandler) ownsLink(c *gin.Context, profileID, linkID string) bool {
	links, err := h.linkService.ListLinks(h.GetDB(c), profileID)
	if err != nil {
		h.HandleServiceError(c, err)
		return false
	}
	for i := range links {
		if links[i].ID == linkID {
			return true
		}
	}
	h.HandleServiceError(c, apperrors.NewForbiddenError("Link belongs to another profile"))
	return false
}

func (h *SocialLinkHandler) requireProfile(c *gin.Context) (*profileRef, bool) {
	return h.CurrentProfile(c, h.profileService)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Invalidator is the slice of the revalidation pipeline the handler
// needs. Without a configured cache a no-op implementation stands in
// and requests are accepted and dropped.
type Invalidator interface {
	EnqueueInvalidation(profileID, handle string, tags ...string)
	EnqueueTags(tags ...string)
}

// RevalidateHandler accepts explicit cache invalidation requests, for
// admin tooling and the frontend's on-demand revalidation hook. The
// work happens asynchronously; the endpoint only enqueues.
type RevalidateHandler struct {
	*BaseHandler
	revalidator Invalidator
}

func NewRevalidateHandler(base *BaseHandler, revalidator Invalidator) *RevalidateHandler {
	return &RevalidateHandler{BaseHandler: base, revalidator: revalidator}
}

func (h *RevalidateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/revalidate", h.Revalidate)
}

type revalidateRequest struct {
	ProfileID string   `json:"profile_id"`
	Handle    string   `json:"handle"`
	Tags      []string `json:"tags" validate:"max=32,dive,max=128"`
}

func (h *RevalidateHandler) Revalidate(c *gin.Context) {
	var req revalidateRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if req.ProfileID == "" && req.Handle == "" && len(req.Tags) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to revalidate"})
		return
	}

	if req.ProfileID != "" || req.Handle != "" {
		h.revalidator.EnqueueInvalidation(req.ProfileID, req.Handle, req.Tags...)
	} else {
		h.revalidator.EnqueueTags(req.Tags...)
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

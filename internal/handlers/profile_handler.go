package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"artlink_backend/internal/cache"
	"artlink_backend/internal/logger"
	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/models"
	"artlink_backend/internal/preview"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/services"
	"artlink_backend/pkg/apperrors"
)

// ProfileHandler serves the public profile page and the owner's edit
// surface. Public reads go through the tag-based page cache; every
// mutation enqueues an invalidation for the affected tags.
type ProfileHandler struct {
	*BaseHandler
	profileService services.ProfileService
	mediaService   services.ProfileMediaService
	workService    services.WorkService
	registry       *mediafield.Registry
	planner        *preview.Planner
	pages          *cache.PageCache // nil when redis is unavailable
}

func NewProfileHandler(
	base *BaseHandler,
	profileService services.ProfileService,
	mediaService services.ProfileMediaService,
	workService services.WorkService,
	registry *mediafield.Registry,
	planner *preview.Planner,
	pages *cache.PageCache,
) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    base,
		profileService: profileService,
		mediaService:   mediaService,
		workService:    workService,
		registry:       registry,
		planner:        planner,
		pages:          pages,
	}
}

// RegisterPublicRoutes mounts the unauthenticated read surface.
func (h *ProfileHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/profiles/:handle", h.GetPublicProfile)
}

// RegisterRoutes mounts the authenticated owner surface.
func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	me := rg.Group("/me")
	{
		me.GET("/profile", h.GetOwnProfile)
		me.PUT("/profile", h.UpdateProfile)
		me.PUT("/profile/avatar", h.SetAvatar)
		me.PUT("/profile/banner", h.SetBanner)
	}
}

// publicProfilePage is the cached public profile payload: the profile
// with its works, each annotated with a render plan.
type publicProfilePage struct {
	Profile *models.Profile `json:"profile"`
	Works   []publicWork    `json:"works"`
}

type publicWork struct {
	models.Work
	Preview *workPreview `json:"preview,omitempty"`
}

// workPreview is the serialized render plan for one work.
type workPreview struct {
	View            preview.View          `json:"view"`
	URL             string                `json:"url"`
	SourceURL       string                `json:"source_url,omitempty"`
	SkeletonTimeout int64                 `json:"skeleton_timeout_ms"`
	OnTimeout       preview.TimeoutPolicy `json:"on_timeout"`
	Sandboxed       bool                  `json:"sandboxed,omitempty"`
	CacheProbe      bool                  `json:"cache_probe,omitempty"`
}

// GetPublicProfile serves a public profile page by handle, cached
// under the profile's tags.
func (h *ProfileHandler) GetPublicProfile(c *gin.Context) {
	ctx := c.Request.Context()
	handle := c.Param("handle")
	cacheKey := "profile/" + handle

	if h.pages != nil {
		if body, err := h.pages.Get(ctx, cacheKey); err == nil && body != nil {
			c.Data(http.StatusOK, "application/json", body)
			return
		} else if err != nil {
			logger.CtxWarn(ctx, "Page cache read failed", "key", cacheKey, "error", err.Error())
		}
	}

	db := h.GetDB(c)
	profile, err := h.profileService.GetByHandle(db, handle)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	// Private profiles look absent to the public surface.
	if !profile.IsPublic {
		h.HandleServiceError(c, apperrors.ErrNotFound(repositories.ErrProfileNotFound))
		return
	}

	works, err := h.workService.ListWorks(db, profile.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	page := publicProfilePage{Profile: profile, Works: make([]publicWork, 0, len(works))}
	for i := range works {
		pw := publicWork{Work: works[i]}
		if plan, err := h.planner.PlanFor(&works[i]); err == nil {
			pw.Preview = planToPreview(plan)
		} else {
			logger.CtxWarn(ctx, "Preview plan failed", "work_id", works[i].ID, "error", err.Error())
		}
		page.Works = append(page.Works, pw)
	}

	body, err := json.Marshal(page)
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}

	if h.pages != nil {
		if err := h.pages.Set(ctx, cacheKey, body, cache.ProfileTag(profile.ID), cache.HandleTag(handle)); err != nil {
			logger.CtxWarn(ctx, "Page cache write failed", "key", cacheKey, "error", err.Error())
		}
	}

	c.Data(http.StatusOK, "application/json", body)
}

func planToPreview(plan *preview.Plan) *workPreview {
	return &workPreview{
		View:            plan.View,
		URL:             plan.URL,
		SourceURL:       plan.SourceURL,
		SkeletonTimeout: plan.SkeletonTimeout.Milliseconds(),
		OnTimeout:       plan.OnTimeout,
		Sandboxed:       plan.Sandboxed,
		CacheProbe:      plan.CacheProbe,
	}
}

// GetOwnProfile returns the caller's full profile, public or not.
func (h *ProfileHandler) GetOwnProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetByUserID(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies text, visibility, category, and location
// changes.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var input services.ProfileUpdateInput
	if !h.BindAndValidateJSON(c, &input) {
		return
	}

	updated, err := h.profileService.UpdateProfile(c.Request.Context(), h.GetDB(c), profile.ID, input)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type profileMediaRequest struct {
	DraftID string `json:"draft_id" validate:"required"`
}

// SetAvatar finalizes an avatar draft and swaps the profile's avatar
// pair.
func (h *ProfileHandler) SetAvatar(c *gin.Context) {
	h.setProfileMedia(c, h.mediaService.SetAvatar)
}

// SetBanner finalizes a banner draft and swaps the profile's banner
// pair.
func (h *ProfileHandler) SetBanner(c *gin.Context) {
	h.setProfileMedia(c, h.mediaService.SetBanner)
}

func (h *ProfileHandler) setProfileMedia(
	c *gin.Context,
	apply func(ctx context.Context, db *gorm.DB, profileID string, media *mediafield.FinalizedMedia) (*models.Profile, error),
) {
	profile, ok := h.requireProfile(c)
	if !ok {
		return
	}

	var req profileMediaRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	ctrl, err := h.registry.GetOwned(req.DraftID, profile.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	media, err := ctrl.Finalize(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	updated, err := apply(c.Request.Context(), h.GetDB(c), profile.ID, media)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.registry.Discard(req.DraftID)
	c.JSON(http.StatusOK, updated)
}

func (h *ProfileHandler) requireProfile(c *gin.Context) (*profileRef, bool) {
	return h.CurrentProfile(c, h.profileService)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"artlink_backend/internal/cache"
	"artlink_backend/internal/logger"
	"artlink_backend/internal/services"
	"artlink_backend/pkg/apperrors"
)

// DiscoveryHandler serves the public homepage surfaces: featured
// works, recent works, and the per-category sections. All three are
// page-cached under the discovery tag.
type DiscoveryHandler struct {
	*BaseHandler
	discoveryService services.DiscoveryService
	pages            *cache.PageCache // nil when redis is unavailable
}

func NewDiscoveryHandler(
	base *BaseHandler,
	discoveryService services.DiscoveryService,
	pages *cache.PageCache,
) *DiscoveryHandler {
	return &DiscoveryHandler{
		BaseHandler:      base,
		discoveryService: discoveryService,
		pages:            pages,
	}
}

func (h *DiscoveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	disc := rg.Group("/discovery")
	{
		disc.GET("/featured", h.Featured)
		disc.GET("/recent", h.Recent)
		disc.GET("/home", h.Home)
	}
}

func (h *DiscoveryHandler) Featured(c *gin.Context) {
	limit := ParseQueryInt(c, "limit", 0)
	h.cached(c, "discovery/featured", func() (any, error) {
		works, err := h.discoveryService.FeaturedWorks(h.GetDB(c), limit)
		return gin.H{"works": works}, err
	})
}

func (h *DiscoveryHandler) Recent(c *gin.Context) {
	limit := ParseQueryInt(c, "limit", 0)
	h.cached(c, "discovery/recent", func() (any, error) {
		works, err := h.discoveryService.RecentWorks(h.GetDB(c), limit)
		return gin.H{"works": works}, err
	})
}

func (h *DiscoveryHandler) Home(c *gin.Context) {
	perSection := ParseQueryInt(c, "per_section", 0)
	h.cached(c, "discovery/home", func() (any, error) {
		sections, err := h.discoveryService.HomeSections(h.GetDB(c), perSection)
		return gin.H{"sections": sections}, err
	})
}

// cached serves the page from the cache when present, otherwise
// builds it and caches the result under the discovery tag. Query
// parameters that change the payload become part of the key.
func (h *DiscoveryHandler) cached(c *gin.Context, key string, build func() (any, error)) {
	ctx := c.Request.Context()
	if qs := c.Request.URL.RawQuery; qs != "" {
		key = key + "?" + qs
	}

	if body, ok := h.cacheGet(ctx, key); ok {
		c.Data(http.StatusOK, "application/json", body)
		return
	}

	payload, err := build()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}

	h.cacheSet(ctx, key, body)
	c.Data(http.StatusOK, "application/json", body)
}

func (h *DiscoveryHandler) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if h.pages == nil {
		return nil, false
	}
	body, err := h.pages.Get(ctx, key)
	if err != nil {
		logger.CtxWarn(ctx, "Page cache read failed", "key", key, "error", err.Error())
		return nil, false
	}
	return body, body != nil
}

func (h *DiscoveryHandler) cacheSet(ctx context.Context, key string, body []byte) {
	if h.pages == nil {
		return
	}
	if err := h.pages.Set(ctx, key, body, cache.DiscoveryTag); err != nil {
		logger.CtxWarn(ctx, "Page cache write failed", "key", key, "error", err.Error())
	}
}

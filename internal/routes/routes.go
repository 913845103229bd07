package routes

import (
	"github.com/gin-gonic/gin"

	"artlink_backend/internal/handlers"
	"artlink_backend/internal/middleware"
)

// RegisterRoutes mounts the full HTTP API. Public reads live outside
// the auth group; everything that mutates or touches the caller's own
// data requires a bearer token.
func RegisterRoutes(router *gin.Engine, h *handlers.AppHandlers) {
	api := router.Group("/api/v1")
	{
		// Public surface
		h.ProfileHandler.RegisterPublicRoutes(api)
		h.DiscoveryHandler.RegisterRoutes(api)
		h.FileHandler.RegisterRoutes(api)
		h.RevalidateHandler.RegisterRoutes(api)

		// Authenticated surface
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware())
		{
			h.ProfileHandler.RegisterRoutes(authorized)
			h.WorkHandler.RegisterRoutes(authorized)
			h.MediaDraftHandler.RegisterRoutes(authorized)
			h.SocialLinkHandler.RegisterRoutes(authorized)
		}
	}
}

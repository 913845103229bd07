package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"artlink_backend/database"
	"artlink_backend/internal/cache"
	"artlink_backend/internal/config"
	"artlink_backend/internal/handlers"
	"artlink_backend/internal/logger"
	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/middleware"
	"artlink_backend/internal/preview"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/routes"
	"artlink_backend/internal/services"
	"artlink_backend/internal/storage"
	"artlink_backend/internal/validator"
	"artlink_backend/internal/workers"
)

// Run boots the full server: config, logger, database, storage,
// cache, background workers, and the HTTP API.
func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	router, shutdown := SetupRouter(cfg, gormDB)
	defer shutdown()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := router.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires all components into a gin engine. The returned
// shutdown func stops background workers and releases draft state.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, func()) {
	store, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	// The page cache is an optimization; a missing Redis degrades to
	// uncached reads rather than blocking startup.
	var pages *cache.PageCache
	var revalidator *workers.Revalidator
	var invalidator services.CacheInvalidator = noopInvalidator{}
	var enqueuer handlers.Invalidator = noopInvalidator{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without page cache", "addr", cfg.Redis.Addr, "error", err)
		} else {
			pages = cache.NewPageCache(rdb, time.Hour)
			revalidator = workers.NewRevalidator(pages, cfg.Revalidate.QueueSize, cfg.Revalidate.Retries)
			revalidator.Start()
			invalidator = revalidator
			enqueuer = revalidator
			logger.Info("Page cache initialized", "addr", cfg.Redis.Addr)
		}
	}

	registry := mediafield.NewRegistry(time.Duration(cfg.Media.DraftTTLMinutes) * time.Minute)
	planner := preview.NewPlanner(preview.PlannerConfig{
		VideoTimeout: time.Duration(cfg.Media.VideoSkeletonTimeoutMS) * time.Millisecond,
		AudioTimeout: time.Duration(cfg.Media.AudioSkeletonTimeoutMS) * time.Millisecond,
	})

	svcs := initializeServices(store, invalidator)
	appHandlers := initializeHandlers(cfg, svcs, store, registry, planner, pages, enqueuer)

	router := initializeGinRouter(gormDB)
	routes.RegisterRoutes(router, appHandlers)

	shutdown := func() {
		registry.Close()
		if revalidator != nil {
			revalidator.Stop()
		}
	}
	return router, shutdown
}

// serviceContainer groups the wired services.
type serviceContainer struct {
	Profile      services.ProfileService
	ProfileMedia services.ProfileMediaService
	Work         services.WorkService
	SocialLink   services.SocialLinkService
	Discovery    services.DiscoveryService
}

func initializeServices(store storage.Storage, invalidator services.CacheInvalidator) *serviceContainer {
	profileRepo := repositories.NewProfileRepository()
	workRepo := repositories.NewWorkRepository()
	linkRepo := repositories.NewSocialLinkRepository()
	categoryRepo := repositories.NewCategoryRepository()
	locationRepo := repositories.NewLocationRepository()
	uploadRepo := repositories.NewUploadRepository()

	return &serviceContainer{
		Profile:      services.NewProfileService(profileRepo, categoryRepo, locationRepo, invalidator),
		ProfileMedia: services.NewProfileMediaService(profileRepo, uploadRepo, store, invalidator),
		Work:         services.NewWorkService(workRepo, profileRepo, uploadRepo, store, invalidator),
		SocialLink:   services.NewSocialLinkService(linkRepo, profileRepo, invalidator),
		Discovery:    services.NewDiscoveryService(workRepo, profileRepo, categoryRepo),
	}
}

func initializeHandlers(
	cfg *config.Config,
	svcs *serviceContainer,
	store storage.Storage,
	registry *mediafield.Registry,
	planner *preview.Planner,
	pages *cache.PageCache,
	enqueuer handlers.Invalidator,
) *handlers.AppHandlers {
	base := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		ProfileHandler:    handlers.NewProfileHandler(base, svcs.Profile, svcs.ProfileMedia, svcs.Work, registry, planner, pages),
		WorkHandler:       handlers.NewWorkHandler(base, svcs.Work, svcs.Profile, registry),
		MediaDraftHandler: handlers.NewMediaDraftHandler(base, registry, svcs.Profile, cfg.Media),
		SocialLinkHandler: handlers.NewSocialLinkHandler(base, svcs.SocialLink, svcs.Profile),
		DiscoveryHandler:  handlers.NewDiscoveryHandler(base, svcs.Discovery, pages),
		RevalidateHandler: handlers.NewRevalidateHandler(base, enqueuer),
		FileHandler:       handlers.NewFileHandler(base, store),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// noopInvalidator stands in for the revalidation worker when no cache
// is configured: writes and revalidate requests are accepted and
// dropped.
type noopInvalidator struct{}

func (noopInvalidator) EnqueueInvalidation(profileID, handle string, tags ...string) {}

func (noopInvalidator) EnqueueTags(tags ...string) {}

package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"artlink_backend/internal/config"
	"artlink_backend/internal/logger"
	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
)

var gormDB *gorm.DB

// ConnectGorm opens the GORM connection from config, reusing an
// already-open one.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate migrates all models and seeds the category table.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Location{},
		&models.Category{},
		&models.Profile{},
		&models.Work{},
		&models.SocialLink{},
		&models.Upload{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	categoryRepo := repositories.NewCategoryRepository()
	if err := categoryRepo.Seed(db, DefaultCategories()); err != nil {
		return fmt.Errorf("category seed failed: %w", err)
	}

	logger.Info("AutoMigrate completed")
	return nil
}

// DefaultCategories is the built-in discipline catalog.
func DefaultCategories() []models.Category {
	return []models.Category{
		{Slug: "musician", Name: "Musician"},
		{Slug: "photographer", Name: "Photographer"},
		{Slug: "videographer", Name: "Videographer"},
		{Slug: "designer", Name: "Designer"},
		{Slug: "illustrator", Name: "Illustrator"},
		{Slug: "writer", Name: "Writer"},
		{Slug: "dancer", Name: "Dancer"},
		{Slug: "actor", Name: "Actor"},
	}
}

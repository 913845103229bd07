package repositories

import (
	"errors"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	FindAll(db *gorm.DB) ([]models.Category, error)
	FindBySlug(db *gorm.DB, slug string) (*models.Category, error)
	FindBySlugs(db *gorm.DB, slugs []string) ([]models.Category, error)
	Seed(db *gorm.DB, categories []models.Category) error
}

type CategoryRepositoryImpl struct{}

func NewCategoryRepository() CategoryRepository {
	return &CategoryRepositoryImpl{}
}

func (r *CategoryRepositoryImpl) FindAll(db *gorm.DB) ([]models.Category, error) {
	var categories []models.Category
	err := db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepositoryImpl) FindBySlug(db *gorm.DB, slug string) (*models.Category, error) {
	var category models.Category
	err := db.First(&category, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindBySlugs resolves slugs to rows; an unknown slug is an error so
// callers never silently drop a selection.
func (r *CategoryRepositoryImpl) FindBySlugs(db *gorm.DB, slugs []string) ([]models.Category, error) {
	var categories []models.Category
	if err := db.Where("slug IN ?", slugs).Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) != len(slugs) {
		return nil, ErrCategoryNotFound
	}
	return categories, nil
}

// Seed inserts missing categories, leaving existing rows untouched.
func (r *CategoryRepositoryImpl) Seed(db *gorm.DB, categories []models.Category) error {
	for i := range categories {
		err := db.Where("slug = ?", categories[i].Slug).
			FirstOrCreate(&categories[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

package repositories

import (
	"errors"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrLocationNotFound = errors.New("location not found")
)

type ProfileRepository interface {
	Create(db *gorm.DB, profile *models.Profile) error
	FindByID(db *gorm.DB, id string) (*models.Profile, error)
	FindByUserID(db *gorm.DB, userID string) (*models.Profile, error)
	FindByHandle(db *gorm.DB, handle string) (*models.Profile, error)
	Update(db *gorm.DB, profile *models.Profile) error
	UpdateAvatar(db *gorm.DB, id, avatarURL, avatarThumbURL string) error
	UpdateBanner(db *gorm.DB, id, bannerURL, bannerThumbURL string) error
	ReplaceCategories(db *gorm.DB, profile *models.Profile, categories []models.Category) error
	FindPublicByCategory(db *gorm.DB, categorySlug string, limit int) ([]models.Profile, error)
	FindRandomPublic(db *gorm.DB, limit int, excludeIDs []string) ([]models.Profile, error)
}

type ProfileRepositoryImpl struct{}

func NewProfileRepository() ProfileRepository {
	return &ProfileRepositoryImpl{}
}

func (r *ProfileRepositoryImpl) Create(db *gorm.DB, profile *models.Profile) error {
	return db.Create(profile).Error
}

func (r *ProfileRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Profile, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *ProfileRepositoryImpl) FindByUserID(db *gorm.DB, userID string) (*models.Profile, error) {
	return r.findOne(db, "user_id = ?", userID)
}

func (r *ProfileRepositoryImpl) FindByHandle(db *gorm.DB, handle string) (*models.Profile, error) {
	return r.findOne(db, "handle = ?", handle)
}

func (r *ProfileRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.Profile, error) {
	var profile models.Profile
	err := db.Preload("Location").Preload("Categories").
		Preload("SocialLinks", func(db *gorm.DB) *gorm.DB {
			return db.Order("social_links.position ASC")
		}).
		First(&profile, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepositoryImpl) Update(db *gorm.DB, profile *models.Profile) error {
	result := db.Model(profile).Updates(map[string]interface{}{
		"display_name": profile.DisplayName,
		"bio":          profile.Bio,
		"location_id":  profile.LocationID,
		"is_public":    profile.IsPublic,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepositoryImpl) UpdateAvatar(db *gorm.DB, id, avatarURL, avatarThumbURL string) error {
	return r.updateMedia(db, id, map[string]interface{}{
		"avatar_url":       avatarURL,
		"avatar_thumb_url": avatarThumbURL,
	})
}

func (r *ProfileRepositoryImpl) UpdateBanner(db *gorm.DB, id, bannerURL, bannerThumbURL string) error {
	return r.updateMedia(db, id, map[string]interface{}{
		"banner_url":       bannerURL,
		"banner_thumb_url": bannerThumbURL,
	})
}

func (r *ProfileRepositoryImpl) updateMedia(db *gorm.DB, id string, fields map[string]interface{}) error {
	result := db.Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepositoryImpl) ReplaceCategories(db *gorm.DB, profile *models.Profile, categories []models.Category) error {
	return db.Model(profile).Association("Categories").Replace(categories)
}

func (r *ProfileRepositoryImpl) FindPublicByCategory(db *gorm.DB, categorySlug string, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := db.Preload("Categories").
		Joins("JOIN profile_categories pc ON pc.profile_id = profiles.id").
		Joins("JOIN categories c ON c.id = pc.category_id").
		Where("c.slug = ? AND profiles.is_public = ?", categorySlug, true).
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

// FindRandomPublic backfills discovery slots with random public
// profiles not already shown.
func (r *ProfileRepositoryImpl) FindRandomPublic(db *gorm.DB, limit int, excludeIDs []string) ([]models.Profile, error) {
	var profiles []models.Profile
	query := db.Preload("Categories").Where("is_public = ?", true)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	err := query.Order("RANDOM()").Limit(limit).Find(&profiles).Error
	return profiles, err
}

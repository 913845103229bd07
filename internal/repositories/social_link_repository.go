package repositories

import (
	"errors"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
)

var (
	ErrSocialLinkNotFound = errors.New("social link not found")

	// ErrDuplicatePlatform mirrors the per-platform uniqueness rule;
	// the service maps it to a user-facing message naming the
	// platform.
	ErrDuplicatePlatform = errors.New("platform already linked")
)

type SocialLinkRepository interface {
	Create(db *gorm.DB, link *models.SocialLink) error
	FindByID(db *gorm.DB, id string) (*models.SocialLink, error)
	FindByProfile(db *gorm.DB, profileID string) ([]models.SocialLink, error)
	ExistsForPlatform(db *gorm.DB, profileID, platformKey string) (bool, error)
	Update(db *gorm.DB, link *models.SocialLink) error
	Delete(db *gorm.DB, id string) error
	Reorder(db *gorm.DB, profileID string, linkIDs []string) error
}

type SocialLinkRepositoryImpl struct{}

func NewSocialLinkRepository() SocialLinkRepository {
	return &SocialLinkRepositoryImpl{}
}

func (r *SocialLinkRepositoryImpl) Create(db *gorm.DB, link *models.SocialLink) error {
	if link.Position == 0 {
		var maxPos int
		db.Model(&models.SocialLink{}).Where("profile_id = ?", link.ProfileID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPos)
		link.Position = maxPos + 1
	}
	return db.Create(link).Error
}

func (r *SocialLinkRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.SocialLink, error) {
	var link models.SocialLink
	err := db.First(&link, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSocialLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *SocialLinkRepositoryImpl) FindByProfile(db *gorm.DB, profileID string) ([]models.SocialLink, error) {
	var links []models.SocialLink
	err := db.Where("profile_id = ?", profileID).
		Order("position ASC").Find(&links).Error
	return links, err
}

func (r *SocialLinkRepositoryImpl) ExistsForPlatform(db *gorm.DB, profileID, platformKey string) (bool, error) {
	var count int64
	err := db.Model(&models.SocialLink{}).
		Where("profile_id = ? AND platform_key = ?", profileID, platformKey).
		Count(&count).Error
	return count > 0, err
}

func (r *SocialLinkRepositoryImpl) Update(db *gorm.DB, link *models.SocialLink) error {
	result := db.Model(link).Updates(map[string]interface{}{
		"url":   link.URL,
		"label": link.Label,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSocialLinkNotFound
	}
	return nil
}

func (r *SocialLinkRepositoryImpl) Delete(db *gorm.DB, id string) error {
	var link models.SocialLink
	if err := db.First(&link, "id = ?", id).Error; err != nil {
		return ErrSocialLinkNotFound
	}

	if err := db.Delete(&link).Error; err != nil {
		return err
	}

	return db.Model(&models.SocialLink{}).
		Where("profile_id = ? AND position > ?", link.ProfileID, link.Position).
		Update("position", gorm.Expr("position - ?", 1)).Error
}

func (r *SocialLinkRepositoryImpl) Reorder(db *gorm.DB, profileID string, linkIDs []string) error {
	for pos, linkID := range linkIDs {
		if err := db.Model(&models.SocialLink{}).
			Where("id = ? AND profile_id = ?", linkID, profileID).
			Update("position", pos+1).Error; err != nil {
			return err
		}
	}
	return nil
}

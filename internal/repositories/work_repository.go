package repositories

import (
	"errors"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
)

var (
	ErrWorkNotFound = errors.New("work not found")
)

type WorkRepository interface {
	Create(db *gorm.DB, work *models.Work) error
	FindByID(db *gorm.DB, id string) (*models.Work, error)
	FindByProfile(db *gorm.DB, profileID string) ([]models.Work, error)
	FindRecent(db *gorm.DB, limit int) ([]models.Work, error)
	FindFeatured(db *gorm.DB, limit int) ([]models.Work, error)
	Update(db *gorm.DB, work *models.Work) error
	UpdateMedia(db *gorm.DB, id string, mediaType models.MediaType, mediaSource models.MediaSource, srcURL, thumbURL string) error
	Delete(db *gorm.DB, id string) error
	Reorder(db *gorm.DB, profileID string, workIDs []string) error
	CountByProfile(db *gorm.DB, profileID string) (int64, error)
}

type WorkRepositoryImpl struct{}

func NewWorkRepository() WorkRepository {
	return &WorkRepositoryImpl{}
}

func (r *WorkRepositoryImpl) Create(db *gorm.DB, work *models.Work) error {
	// New works append at the end of the profile's grid.
	if work.Position == 0 {
		var maxPos int
		db.Model(&models.Work{}).Where("profile_id = ?", work.ProfileID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPos)
		work.Position = maxPos + 1
	}
	return db.Create(work).Error
}

func (r *WorkRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Work, error) {
	var work models.Work
	err := db.First(&work, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, err
	}
	return &work, nil
}

func (r *WorkRepositoryImpl) FindByProfile(db *gorm.DB, profileID string) ([]models.Work, error) {
	var works []models.Work
	err := db.Where("profile_id = ?", profileID).
		Order("position ASC").Find(&works).Error
	return works, err
}

func (r *WorkRepositoryImpl) FindRecent(db *gorm.DB, limit int) ([]models.Work, error) {
	var works []models.Work
	err := db.Joins("JOIN profiles ON works.profile_id = profiles.id").
		Where("profiles.is_public = ?", true).
		Order("works.created_at DESC").
		Limit(limit).
		Find(&works).Error
	return works, err
}

func (r *WorkRepositoryImpl) FindFeatured(db *gorm.DB, limit int) ([]models.Work, error) {
	var works []models.Work
	// First work of each public pro profile, newest profiles first.
	err := db.Joins("JOIN profiles ON works.profile_id = profiles.id").
		Where("profiles.is_public = ? AND profiles.plan = ?", true, models.PlanTierPro).
		Where("works.position = ?", 1).
		Order("profiles.created_at DESC").
		Limit(limit).
		Find(&works).Error
	return works, err
}

func (r *WorkRepositoryImpl) Update(db *gorm.DB, work *models.Work) error {
	result := db.Model(work).Updates(map[string]interface{}{
		"title":       work.Title,
		"description": work.Description,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWorkNotFound
	}
	return nil
}

// UpdateMedia swaps the media columns of an existing row; the caller
// owns the surrounding upload/cleanup sequencing.
func (r *WorkRepositoryImpl) UpdateMedia(db *gorm.DB, id string, mediaType models.MediaType, mediaSource models.MediaSource, srcURL, thumbURL string) error {
	result := db.Model(&models.Work{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"media_type":   mediaType,
			"media_source": mediaSource,
			"src_url":      srcURL,
			"thumb_url":    thumbURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWorkNotFound
	}
	return nil
}

func (r *WorkRepositoryImpl) Delete(db *gorm.DB, id string) error {
	var work models.Work
	if err := db.First(&work, "id = ?", id).Error; err != nil {
		return ErrWorkNotFound
	}

	if err := db.Delete(&work).Error; err != nil {
		return err
	}

	// Close the gap in the grid.
	return db.Model(&models.Work{}).
		Where("profile_id = ? AND position > ?", work.ProfileID, work.Position).
		Update("position", gorm.Expr("position - ?", 1)).Error
}

func (r *WorkRepositoryImpl) Reorder(db *gorm.DB, profileID string, workIDs []string) error {
	for pos, workID := range workIDs {
		if err := db.Model(&models.Work{}).
			Where("id = ? AND profile_id = ?", workID, profileID).
			Update("position", pos+1).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *WorkRepositoryImpl) CountByProfile(db *gorm.DB, profileID string) (int64, error) {
	var count int64
	err := db.Model(&models.Work{}).Where("profile_id = ?", profileID).
		Count(&count).Error
	return count, err
}

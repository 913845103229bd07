package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
)

var ErrUploadNotFound = errors.New("upload not found")

type UploadRepository interface {
	Create(db *gorm.DB, upload *models.Upload) error
	FindByPath(db *gorm.DB, path string) (*models.Upload, error)
	FindByEntity(db *gorm.DB, entityType, entityID string) ([]models.Upload, error)
	DeleteByPath(db *gorm.DB, path string) error
	FindOrphans(db *gorm.DB, olderThan time.Time) ([]models.Upload, error)
	StorageUsage(db *gorm.DB, profileID string) (int64, error)
}

type UploadRepositoryImpl struct{}

func NewUploadRepository() UploadRepository {
	return &UploadRepositoryImpl{}
}

func (r *UploadRepositoryImpl) Create(db *gorm.DB, upload *models.Upload) error {
	return db.Create(upload).Error
}

func (r *UploadRepositoryImpl) FindByPath(db *gorm.DB, path string) (*models.Upload, error) {
	var upload models.Upload
	err := db.First(&upload, "path = ?", path).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

func (r *UploadRepositoryImpl) FindByEntity(db *gorm.DB, entityType, entityID string) ([]models.Upload, error) {
	var uploads []models.Upload
	err := db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").Find(&uploads).Error
	return uploads, err
}

func (r *UploadRepositoryImpl) DeleteByPath(db *gorm.DB, path string) error {
	return db.Where("path = ?", path).Delete(&models.Upload{}).Error
}

// FindOrphans lists audit rows whose entity no longer references the
// path. They are reported, not reconciled.
func (r *UploadRepositoryImpl) FindOrphans(db *gorm.DB, olderThan time.Time) ([]models.Upload, error) {
	var uploads []models.Upload
	err := db.Where("created_at < ?", olderThan).
		Where("path NOT IN (SELECT src_url FROM works WHERE media_source = ?)", models.MediaSourceUpload).
		Where("path NOT IN (SELECT avatar_url FROM profiles WHERE avatar_url <> '')").
		Where("path NOT IN (SELECT avatar_thumb_url FROM profiles WHERE avatar_thumb_url <> '')").
		Where("path NOT IN (SELECT banner_url FROM profiles WHERE banner_url <> '')").
		Where("path NOT IN (SELECT banner_thumb_url FROM profiles WHERE banner_thumb_url <> '')").
		Find(&uploads).Error
	return uploads, err
}

func (r *UploadRepositoryImpl) StorageUsage(db *gorm.DB, profileID string) (int64, error) {
	var total int64
	err := db.Model(&models.Upload{}).Where("profile_id = ?", profileID).
		Select("COALESCE(SUM(size), 0)").Scan(&total).Error
	return total, err
}

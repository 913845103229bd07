package repositories

import (
	"gorm.io/gorm"

	"artlink_backend/internal/models"
)

type LocationRepository interface {
	FindOrCreate(db *gorm.DB, location *models.Location) error
	FindByID(db *gorm.DB, id string) (*models.Location, error)
}

type LocationRepositoryImpl struct{}

func NewLocationRepository() LocationRepository {
	return &LocationRepositoryImpl{}
}

// FindOrCreate resolves a location by formatted address, creating the
// row on first sight so profiles in the same place share one row.
func (r *LocationRepositoryImpl) FindOrCreate(db *gorm.DB, location *models.Location) error {
	return db.Where("formatted_address = ?", location.FormattedAddress).
		FirstOrCreate(location).Error
}

func (r *LocationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Location, error) {
	var location models.Location
	err := db.First(&location, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

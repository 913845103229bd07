package services

import (
	"context"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/validator"
	"artlink_backend/pkg/apperrors"
)

// ProfileUpdateInput carries the editable text/metadata fields of a
// profile. CategorySlugs replaces the category set wholesale.
type ProfileUpdateInput struct {
	DisplayName   string   `json:"display_name" validate:"required,max=100"`
	Bio           string   `json:"bio" validate:"max=800"`
	IsPublic      *bool    `json:"is_public"`
	CategorySlugs []string `json:"category_slugs"`

	Location *LocationInput `json:"location"`
}

type LocationInput struct {
	FormattedAddress string  `json:"formatted_address" validate:"required"`
	City             string  `json:"city"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

type ProfileService interface {
	GetByHandle(db *gorm.DB, handle string) (*models.Profile, error)
	GetByUserID(db *gorm.DB, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, db *gorm.DB, profileID string, input ProfileUpdateInput) (*models.Profile, error)
}

type profileService struct {
	profileRepo  repositories.ProfileRepository
	categoryRepo repositories.CategoryRepository
	locationRepo repositories.LocationRepository
	validate     *validator.Validator
	invalidator  CacheInvalidator
}

func NewProfileService(
	profileRepo repositories.ProfileRepository,
	categoryRepo repositories.CategoryRepository,
	locationRepo repositories.LocationRepository,
	invalidator CacheInvalidator,
) ProfileService {
	return &profileService{
		profileRepo:  profileRepo,
		categoryRepo: categoryRepo,
		locationRepo: locationRepo,
		validate:     validator.New(),
		invalidator:  invalidator,
	}
}

func (s *profileService) GetByHandle(db *gorm.DB, handle string) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByHandle(db, handle)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	return profile, nil
}

func (s *profileService) GetByUserID(db *gorm.DB, userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByUserID(db, userID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	return profile, nil
}

// UpdateProfile applies the editable fields. Categories are capped by
// the profile's plan tier; locations deduplicate on the formatted
// address.
func (s *profileService) UpdateProfile(ctx context.Context, db *gorm.DB, profileID string, input ProfileUpdateInput) (*models.Profile, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, validationToAppError(err)
	}

	profile, err := s.profileRepo.FindByID(db, profileID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	if len(input.CategorySlugs) > profile.Plan.MaxCategories() {
		return nil, apperrors.ErrCategoryLimit
	}

	profile.DisplayName = input.DisplayName
	profile.Bio = input.Bio
	if input.IsPublic != nil {
		profile.IsPublic = *input.IsPublic
	}

	if input.Location != nil {
		loc := &models.Location{
			FormattedAddress: input.Location.FormattedAddress,
			City:             input.Location.City,
			Latitude:         input.Location.Latitude,
			Longitude:        input.Location.Longitude,
		}
		if err := s.locationRepo.FindOrCreate(db, loc); err != nil {
			return nil, apperrors.InternalError(err)
		}
		profile.LocationID = &loc.ID
	}

	if err := s.profileRepo.Update(db, profile); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if input.CategorySlugs != nil {
		categories, err := s.categoryRepo.FindBySlugs(db, input.CategorySlugs)
		if err != nil {
			if apperrors.Is(err, repositories.ErrCategoryNotFound) {
				return nil, apperrors.NewBadRequestError("Unknown category")
			}
			return nil, apperrors.InternalError(err)
		}
		if err := s.profileRepo.ReplaceCategories(db, profile, categories); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	if s.invalidator != nil {
		s.invalidator.EnqueueInvalidation(profile.ID, profile.Handle)
	}

	refreshed, err := s.profileRepo.FindByID(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return refreshed, nil
}

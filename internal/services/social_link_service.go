package services

import (
	"context"

	"gorm.io/gorm"

	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/validator"
	"artlink_backend/pkg/apperrors"
)

// SocialLinkInput carries one link of the profile's ordered
// collection.
type SocialLinkInput struct {
	PlatformKey string `json:"platform_key" validate:"required,is-platform-key"`
	URL         string `json:"url" validate:"required,url"`
	Label       string `json:"label" validate:"max=80"`
}

type SocialLinkService interface {
	AddLink(ctx context.Context, db *gorm.DB, profileID string, input SocialLinkInput) (*models.SocialLink, error)
	UpdateLink(ctx context.Context, db *gorm.DB, linkID string, input SocialLinkInput) (*models.SocialLink, error)
	DeleteLink(ctx context.Context, db *gorm.DB, linkID string) error
	ListLinks(db *gorm.DB, profileID string) ([]models.SocialLink, error)
	ReorderLinks(ctx context.Context, db *gorm.DB, profileID string, linkIDs []string) error
}

type socialLinkService struct {
	linkRepo    repositories.SocialLinkRepository
	profileRepo repositories.ProfileRepository
	validate    *validator.Validator
	invalidator CacheInvalidator
}

func NewSocialLinkService(
	linkRepo repositories.SocialLinkRepository,
	profileRepo repositories.ProfileRepository,
	invalidator CacheInvalidator,
) SocialLinkService {
	return &socialLinkService{
		linkRepo:    linkRepo,
		profileRepo: profileRepo,
		validate:    validator.New(),
		invalidator: invalidator,
	}
}

// AddLink appends a link, enforcing at most one link per platform.
// The duplicate check runs before any write so the common case never
// reaches the database constraint; "custom" links may repeat.
func (s *socialLinkService) AddLink(ctx context.Context, db *gorm.DB, profileID string, input SocialLinkInput) (*models.SocialLink, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, validationToAppError(err)
	}

	profile, err := s.profileRepo.FindByID(db, profileID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	if input.PlatformKey != models.PlatformCustom {
		exists, err := s.linkRepo.ExistsForPlatform(db, profile.ID, input.PlatformKey)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if exists {
			return nil, duplicatePlatformError(input.PlatformKey)
		}
	}

	link := &models.SocialLink{
		ProfileID:   profile.ID,
		PlatformKey: input.PlatformKey,
		URL:         input.URL,
		Label:       input.Label,
	}
	if err := s.linkRepo.Create(db, link); err != nil {
		// A concurrent insert can still trip the constraint; map it
		// to the same user-facing message.
		return nil, mapLinkError(err, input.PlatformKey)
	}

	s.invalidate(profile)
	return link, nil
}

func (s *socialLinkService) UpdateLink(ctx context.Context, db *gorm.DB, linkID string, input SocialLinkInput) (*models.SocialLink, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, validationToAppError(err)
	}

	link, err := s.linkRepo.FindByID(db, linkID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	if input.PlatformKey != link.PlatformKey {
		return nil, apperrors.ErrInvalidOperation("social_link", "Platform cannot change; remove the link and add a new one")
	}

	link.URL = input.URL
	link.Label = input.Label
	if err := s.linkRepo.Update(db, link); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if profile, err := s.profileRepo.FindByID(db, link.ProfileID); err == nil {
		s.invalidate(profile)
	}
	return link, nil
}

func (s *socialLinkService) DeleteLink(ctx context.Context, db *gorm.DB, linkID string) error {
	link, err := s.linkRepo.FindByID(db, linkID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	if err := s.linkRepo.Delete(db, link.ID); err != nil {
		return apperrors.InternalError(err)
	}
	if profile, err := s.profileRepo.FindByID(db, link.ProfileID); err == nil {
		s.invalidate(profile)
	}
	return nil
}

func (s *socialLinkService) ListLinks(db *gorm.DB, profileID string) ([]models.SocialLink, error) {
	return s.linkRepo.FindByProfile(db, profileID)
}

func (s *socialLinkService) ReorderLinks(ctx context.Context, db *gorm.DB, profileID string, linkIDs []string) error {
	if err := s.linkRepo.Reorder(db, profileID, linkIDs); err != nil {
		return apperrors.InternalError(err)
	}
	if profile, err := s.profileRepo.FindByID(db, profileID); err == nil {
		s.invalidate(profile)
	}
	return nil
}

func (s *socialLinkService) invalidate(profile *models.Profile) {
	if s.invalidator != nil {
		s.invalidator.EnqueueInvalidation(profile.ID, profile.Handle)
	}
}

func duplicatePlatformError(platformKey string) *apperrors.AppError {
	label := models.PlatformLabels[platformKey]
	return apperrors.ErrConflict(repositories.ErrDuplicatePlatform,
		"social_link", "Only one "+label+" link is allowed")
}

func mapLinkError(err error, platformKey string) error {
	if isUniqueViolation(err) {
		return duplicatePlatformError(platformKey)
	}
	return apperrors.InternalError(err)
}

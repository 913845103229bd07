package services

import (
	"bytes"
	"context"

	"gorm.io/gorm"

	"artlink_backend/internal/logger"
	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/storage"
	"artlink_backend/internal/validator"
	"artlink_backend/pkg/apperrors"
)

// CacheInvalidator enqueues best-effort cache invalidation after a
// successful write. Failures never surface to the caller.
type CacheInvalidator interface {
	EnqueueInvalidation(profileID, handle string, tags ...string)
}

// WorkTextInput carries the text fields of the add/edit work flows.
type WorkTextInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=500"`
}

type WorkService interface {
	CreateWork(ctx context.Context, db *gorm.DB, profileID string, input WorkTextInput, media *mediafield.FinalizedMedia) (*models.Work, error)
	UpdateWork(ctx context.Context, db *gorm.DB, workID string, input WorkTextInput, media *mediafield.FinalizedMedia) (*models.Work, error)
	DeleteWork(ctx context.Context, db *gorm.DB, workID string) error
	GetWork(db *gorm.DB, workID string) (*models.Work, error)
	ListWorks(db *gorm.DB, profileID string) ([]models.Work, error)
	ReorderWorks(ctx context.Context, db *gorm.DB, profileID string, workIDs []string) error
}

type workService struct {
	workRepo    repositories.WorkRepository
	profileRepo repositories.ProfileRepository
	uploadRepo  repositories.UploadRepository
	storage     storage.Storage
	validate    *validator.Validator
	invalidator CacheInvalidator
}

func NewWorkService(
	workRepo repositories.WorkRepository,
	profileRepo repositories.ProfileRepository,
	uploadRepo repositories.UploadRepository,
	store storage.Storage,
	invalidator CacheInvalidator,
) WorkService {
	return &workService{
		workRepo:    workRepo,
		profileRepo: profileRepo,
		uploadRepo:  uploadRepo,
		storage:     store,
		validate:    validator.New(),
		invalidator: invalidator,
	}
}

// CreateWork runs the add-work saga: validate, upload (for image
// media), insert the row, compensate the upload if the insert fails.
func (s *workService) CreateWork(ctx context.Context, db *gorm.DB, profileID string, input WorkTextInput, media *mediafield.FinalizedMedia) (*models.Work, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, validationToAppError(err)
	}
	if media == nil {
		return nil, apperrors.ErrMediaNotReady
	}

	profile, err := s.profileRepo.FindByID(db, profileID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	work := &models.Work{
		ProfileID:   profile.ID,
		Title:       input.Title,
		Description: input.Description,
		MediaType:   media.MediaType,
		MediaSource: media.MediaSource,
	}

	if media.MediaSource.IsUpload() {
		if err := s.uploadMedia(ctx, media); err != nil {
			return nil, err
		}
		work.SrcURL = media.StoragePath
		work.ThumbURL = media.ThumbPath
	} else {
		work.SrcURL = media.SourceURL
		work.ThumbURL = ""
	}

	if err := s.workRepo.Create(db, work); err != nil {
		// Compensate: the row never landed, so the fresh objects are
		// orphans. Cleanup failure is logged, not surfaced.
		s.cleanupObjects(ctx, "create-work", media.StoragePath, media.ThumbPath)
		return nil, apperrors.InternalError(err)
	}

	s.recordUpload(db, profile.ID, "work", work.ID, media)
	s.invalidateProfile(profile)
	return work, nil
}

// UpdateWork runs the edit-work saga. When media is nil only the text
// fields change. Replacing media uploads the new objects first, then
// swaps the row, then removes the old objects, so a failed swap
// leaves the old media intact.
func (s *workService) UpdateWork(ctx context.Context, db *gorm.DB, workID string, input WorkTextInput, media *mediafield.FinalizedMedia) (*models.Work, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, validationToAppError(err)
	}

	work, err := s.workRepo.FindByID(db, workID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	profile, err := s.profileRepo.FindByID(db, work.ProfileID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}

	work.Title = input.Title
	work.Description = input.Description
	if err := s.workRepo.Update(db, work); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if media != nil {
		if err := s.replaceMedia(ctx, db, work, media); err != nil {
			return nil, err
		}
	}

	s.invalidateProfile(profile)
	return work, nil
}

// replaceMedia swaps a work's media: upload new, update row, delete
// old. A row-update failure compensates by deleting the new objects;
// the previous media stays referenced and untouched.
func (s *workService) replaceMedia(ctx context.Context, db *gorm.DB, work *models.Work, media *mediafield.FinalizedMedia) error {
	oldSrc, oldThumb := work.SrcURL, work.ThumbURL
	oldOwned := work.MediaSource.IsUpload()

	var newSrc, newThumb string
	if media.MediaSource.IsUpload() {
		if err := s.uploadMedia(ctx, media); err != nil {
			return err
		}
		newSrc, newThumb = media.StoragePath, media.ThumbPath
	} else {
		newSrc, newThumb = media.SourceURL, ""
	}

	if err := s.workRepo.UpdateMedia(db, work.ID, media.MediaType, media.MediaSource, newSrc, newThumb); err != nil {
		s.cleanupObjects(ctx, "replace-media", media.StoragePath, media.ThumbPath)
		return apperrors.InternalError(err)
	}

	work.MediaType = media.MediaType
	work.MediaSource = media.MediaSource
	work.SrcURL = newSrc
	work.ThumbURL = newThumb
	s.recordUpload(db, work.ProfileID, "work", work.ID, media)

	// Old objects only now, after the row points at the new media.
	if oldOwned {
		s.cleanupObjects(ctx, "replace-media", oldSrc, oldThumb)
		s.forgetUpload(db, oldSrc, oldThumb)
	}
	return nil
}

// DeleteWork removes a work's storage objects (deduplicated, since an
// image work may share one object for full and thumb) and then its
// row. A storage failure is logged and never blocks the row delete.
func (s *workService) DeleteWork(ctx context.Context, db *gorm.DB, workID string) error {
	work, err := s.workRepo.FindByID(db, workID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}
	profile, err := s.profileRepo.FindByID(db, work.ProfileID)
	if err != nil {
		return apperrors.ErrNotFound(err)
	}

	if work.MediaSource.IsUpload() {
		s.cleanupObjects(ctx, "delete-work", work.SrcURL, work.ThumbURL)
		s.forgetUpload(db, work.SrcURL, work.ThumbURL)
	}

	if err := s.workRepo.Delete(db, work.ID); err != nil {
		return apperrors.InternalError(err)
	}

	s.invalidateProfile(profile)
	return nil
}

func (s *workService) GetWork(db *gorm.DB, workID string) (*models.Work, error) {
	work, err := s.workRepo.FindByID(db, workID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	return work, nil
}

func (s *workService) ListWorks(db *gorm.DB, profileID string) ([]models.Work, error) {
	return s.workRepo.FindByProfile(db, profileID)
}

// ReorderWorks rewrites every position, so the request must name the
// profile's full work set.
func (s *workService) ReorderWorks(ctx context.Context, db *gorm.DB, profileID string, workIDs []string) error {
	count, err := s.workRepo.CountByProfile(db, profileID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if count != int64(len(workIDs)) {
		return apperrors.ErrInvalidOperation("work", "Reorder must include every work")
	}
	if err := s.workRepo.Reorder(db, profileID, workIDs); err != nil {
		return apperrors.InternalError(err)
	}
	if profile, err := s.profileRepo.FindByID(db, profileID); err == nil {
		s.invalidateProfile(profile)
	}
	return nil
}

// uploadMedia writes the finalized bytes, skipping the thumb write
// when full and thumb share one object.
func (s *workService) uploadMedia(ctx context.Context, media *mediafield.FinalizedMedia) error {
	if err := s.storage.Save(ctx, media.StoragePath, bytes.NewReader(media.Data), media.ContentType); err != nil {
		if apperrors.Is(err, storage.ErrObjectExists) {
			return apperrors.ErrPathCollision.WithError(err)
		}
		return apperrors.Wrap(err, apperrors.CodeStorageError, "storage", "Upload failed", 502)
	}

	if media.ThumbPath != "" && media.ThumbPath != media.StoragePath {
		if err := s.storage.Save(ctx, media.ThumbPath, bytes.NewReader(media.ThumbData), media.ContentType); err != nil {
			s.cleanupObjects(ctx, "upload-media", media.StoragePath)
			if apperrors.Is(err, storage.ErrObjectExists) {
				return apperrors.ErrPathCollision.WithError(err)
			}
			return apperrors.Wrap(err, apperrors.CodeStorageError, "storage", "Upload failed", 502)
		}
	}
	return nil
}

// cleanupObjects best-effort deletes storage objects, deduplicating
// shared paths first. Failures are logged, never returned.
func (s *workService) cleanupObjects(ctx context.Context, saga string, paths ...string) {
	for _, path := range storage.DedupPaths(paths...) {
		if err := s.storage.Delete(ctx, path); err != nil {
			logger.SagaLog(saga, "cleanup", err, "path", path)
		}
	}
}

// recordUpload keeps the audit trail for stored objects; audit
// failures are non-fatal.
func (s *workService) recordUpload(db *gorm.DB, profileID, entityType, entityID string, media *mediafield.FinalizedMedia) {
	if media == nil || !media.MediaSource.IsUpload() {
		return
	}
	up := &models.Upload{
		ProfileID:  profileID,
		Category:   storage.CategoryArtworks,
		EntityType: entityType,
		EntityID:   entityID,
		Path:       media.StoragePath,
		MimeType:   media.ContentType,
		Size:       int64(len(media.Data)),
	}
	if err := s.uploadRepo.Create(db, up); err != nil {
		logger.WithError(err).Warn("upload audit record failed", "path", media.StoragePath)
	}
}

func (s *workService) forgetUpload(db *gorm.DB, paths ...string) {
	for _, path := range storage.DedupPaths(paths...) {
		if err := s.uploadRepo.DeleteByPath(db, path); err != nil {
			logger.WithError(err).Warn("upload audit delete failed", "path", path)
		}
	}
}

func (s *workService) invalidateProfile(profile *models.Profile) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.EnqueueInvalidation(profile.ID, profile.Handle)
}

// validationToAppError converts validator field maps into the
// AppError envelope so errors render inline per field.
func validationToAppError(err error) error {
	var ve *validator.ValidationError
	if apperrors.As(err, &ve) {
		return apperrors.ValidationError(ve.Errors)
	}
	return apperrors.InternalError(err)
}

package services

import (
	"bytes"
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"artlink_backend/internal/logger"
	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/storage"
	"artlink_backend/pkg/apperrors"
)

// ProfileMediaService runs the edit-avatar and edit-banner sagas.
// Both upload a full and a thumbnail variant concurrently, swap the
// profile columns, and then best-effort remove the previous objects.
type ProfileMediaService interface {
	SetAvatar(ctx context.Context, db *gorm.DB, profileID string, media *mediafield.FinalizedMedia) (*models.Profile, error)
	SetBanner(ctx context.Context, db *gorm.DB, profileID string, media *mediafield.FinalizedMedia) (*models.Profile, error)
}

type profileMediaService struct {
	profileRepo repositories.ProfileRepository
	uploadRepo  repositories.UploadRepository
	storage     storage.Storage
	invalidator CacheInvalidator
}

func NewProfileMediaService(
	profileRepo repositories.ProfileRepository,
	uploadRepo repositories.UploadRepository,
	store storage.Storage,
	invalidator CacheInvalidator,
) ProfileMediaService {
	return &profileMediaService{
		profileRepo: profileRepo,
		uploadRepo:  uploadRepo,
		storage:     store,
		invalidator: invalidator,
	}
}

func (s *profileMediaService) SetAvatar(ctx context.Context, db *gorm.DB, profileID string, media *mediafield.FinalizedMedia) (*models.Profile, error) {
	return s.setMedia(ctx, db, profileID, media, "edit-avatar", storage.CategoryAvatars,
		func(p *models.Profile) (string, string) { return p.AvatarURL, p.AvatarThumbURL },
		s.profileRepo.UpdateAvatar)
}

func (s *profileMediaService) SetBanner(ctx context.Context, db *gorm.DB, profileID string, media *mediafield.FinalizedMedia) (*models.Profile, error) {
	return s.setMedia(ctx, db, profileID, media, "edit-banner", storage.CategoryBanners,
		func(p *models.Profile) (string, string) { return p.BannerURL, p.BannerThumbURL },
		s.profileRepo.UpdateBanner)
}

// setMedia is the shared avatar/banner saga: concurrent full+thumb
// upload (fan-out, wait for both), row swap, old-object cleanup.
func (s *profileMediaService) setMedia(
	ctx context.Context,
	db *gorm.DB,
	profileID string,
	media *mediafield.FinalizedMedia,
	saga, category string,
	current func(*models.Profile) (string, string),
	update func(db *gorm.DB, id, fullURL, thumbURL string) error,
) (*models.Profile, error) {
	if media == nil || !media.MediaSource.IsUpload() {
		return nil, apperrors.ErrMediaNotReady
	}

	profile, err := s.profileRepo.FindByID(db, profileID)
	if err != nil {
		return nil, apperrors.ErrNotFound(err)
	}
	oldFull, oldThumb := current(profile)

	// Fan-out: both variants upload concurrently; the saga proceeds
	// only when both landed.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.storage.Save(gctx, media.StoragePath, bytes.NewReader(media.Data), media.ContentType)
	})
	g.Go(func() error {
		return s.storage.Save(gctx, media.ThumbPath, bytes.NewReader(media.ThumbData), media.ContentType)
	})
	if err := g.Wait(); err != nil {
		// One side may have landed; remove both best-effort.
		s.cleanup(ctx, saga, media.StoragePath, media.ThumbPath)
		if apperrors.Is(err, storage.ErrObjectExists) {
			return nil, apperrors.ErrPathCollision.WithError(err)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "storage", "Upload failed", 502)
	}

	if err := update(db, profile.ID, media.StoragePath, media.ThumbPath); err != nil {
		s.cleanup(ctx, saga, media.StoragePath, media.ThumbPath)
		return nil, apperrors.InternalError(err)
	}

	s.audit(db, profile.ID, category, media)

	// Previous objects go last, once nothing references them.
	s.cleanup(ctx, saga, oldFull, oldThumb)
	s.forget(db, oldFull, oldThumb)

	if s.invalidator != nil {
		s.invalidator.EnqueueInvalidation(profile.ID, profile.Handle)
	}

	refreshed, err := s.profileRepo.FindByID(db, profile.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return refreshed, nil
}

func (s *profileMediaService) cleanup(ctx context.Context, saga string, paths ...string) {
	for _, path := range storage.DedupPaths(paths...) {
		if err := s.storage.Delete(ctx, path); err != nil {
			logger.SagaLog(saga, "cleanup", err, "path", path)
		}
	}
}

func (s *profileMediaService) audit(db *gorm.DB, profileID, category string, media *mediafield.FinalizedMedia) {
	for _, obj := range []struct {
		path string
		data []byte
	}{
		{media.StoragePath, media.Data},
		{media.ThumbPath, media.ThumbData},
	} {
		up := &models.Upload{
			ProfileID:  profileID,
			Category:   category,
			EntityType: "profile",
			EntityID:   profileID,
			Path:       obj.path,
			MimeType:   media.ContentType,
			Size:       int64(len(obj.data)),
		}
		if err := s.uploadRepo.Create(db, up); err != nil {
			logger.WithError(err).Warn("upload audit record failed", "path", obj.path)
		}
	}
}

func (s *profileMediaService) forget(db *gorm.DB, paths ...string) {
	for _, path := range storage.DedupPaths(paths...) {
		if err := s.uploadRepo.DeleteByPath(db, path); err != nil {
			logger.WithError(err).Warn("upload audit delete failed", "path", path)
		}
	}
}

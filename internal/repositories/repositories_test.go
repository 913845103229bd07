package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"artlink_backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection: every query must see the same in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Location{},
		&models.Category{},
		&models.Profile{},
		&models.Work{},
		&models.SocialLink{},
		&models.Upload{},
	))
	return db
}

func createProfile(t *testing.T, db *gorm.DB, handle string) *models.Profile {
	t.Helper()
	p := &models.Profile{
		UserID:      "user-" + handle,
		Handle:      handle,
		DisplayName: handle,
		Plan:        models.PlanTierFree,
		IsPublic:    true,
	}
	require.NoError(t, NewProfileRepository().Create(db, p))
	return p
}

func TestWorkCreateAssignsNextPosition(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkRepository()
	p := createProfile(t, db, "jane")

	for i, title := range []string{"first", "second", "third"} {
		w := &models.Work{
			ProfileID:   p.ID,
			Title:       title,
			Description: "d",
			MediaType:   models.MediaTypeImage,
			MediaSource: models.MediaSourceUpload,
			SrcURL:      "artworks/p/x.jpg",
		}
		require.NoError(t, repo.Create(db, w))
		assert.Equal(t, i+1, w.Position)
	}
}

func TestWorkDeleteClosesPositionGap(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkRepository()
	p := createProfile(t, db, "jane")

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		w := &models.Work{
			ProfileID: p.ID, Title: title, Description: "d",
			MediaType: models.MediaTypeVideo, MediaSource: models.MediaSourceYouTube,
			SrcURL: "https://youtube.com/watch?v=x",
		}
		require.NoError(t, repo.Create(db, w))
		ids = append(ids, w.ID)
	}

	require.NoError(t, repo.Delete(db, ids[0]))

	works, err := repo.FindByProfile(db, p.ID)
	require.NoError(t, err)
	require.Len(t, works, 2)
	assert.Equal(t, 1, works[0].Position)
	assert.Equal(t, 2, works[1].Position)
	assert.Equal(t, "b", works[0].Title)
}

func TestWorkDeleteMissing(t *testing.T) {
	db := newTestDB(t)
	err := NewWorkRepository().Delete(db, "nope")
	assert.ErrorIs(t, err, ErrWorkNotFound)
}

func TestWorkUpdateMedia(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkRepository()
	p := createProfile(t, db, "jane")

	w := &models.Work{
		ProfileID: p.ID, Title: "t", Description: "d",
		MediaType: models.MediaTypeImage, MediaSource: models.MediaSourceUpload,
		SrcURL: "artworks/p/old.jpg", ThumbURL: "artworks/p/old.jpg",
	}
	require.NoError(t, repo.Create(db, w))

	require.NoError(t, repo.UpdateMedia(db, w.ID, models.MediaTypeImage, models.MediaSourceUpload,
		"artworks/p/new.jpg", "artworks/p/new.jpg"))

	got, err := repo.FindByID(db, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "artworks/p/new.jpg", got.SrcURL)

	assert.ErrorIs(t, repo.UpdateMedia(db, "missing", models.MediaTypeImage, models.MediaSourceUpload, "x", "x"), ErrWorkNotFound)
}

func TestWorkReorder(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkRepository()
	p := createProfile(t, db, "jane")

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		w := &models.Work{
			ProfileID: p.ID, Title: title, Description: "d",
			MediaType: models.MediaTypeImage, MediaSource: models.MediaSourceUpload,
			SrcURL: "artworks/p/x.jpg",
		}
		require.NoError(t, repo.Create(db, w))
		ids = append(ids, w.ID)
	}

	require.NoError(t, repo.Reorder(db, p.ID, []string{ids[2], ids[0], ids[1]}))

	works, err := repo.FindByProfile(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, []string{works[0].Title, works[1].Title, works[2].Title})
}

func TestProfileFindByHandlePreloadsAssociations(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository()
	p := createProfile(t, db, "jane")

	linkRepo := NewSocialLinkRepository()
	require.NoError(t, linkRepo.Create(db, &models.SocialLink{
		ProfileID: p.ID, PlatformKey: models.PlatformInstagram, URL: "https://instagram.com/jane",
	}))
	require.NoError(t, linkRepo.Create(db, &models.SocialLink{
		ProfileID: p.ID, PlatformKey: models.PlatformWebsite, URL: "https://jane.example",
	}))

	got, err := repo.FindByHandle(db, "jane")
	require.NoError(t, err)
	require.Len(t, got.SocialLinks, 2)
	assert.Equal(t, models.PlatformInstagram, got.SocialLinks[0].PlatformKey)

	_, err = repo.FindByHandle(db, "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileUpdateAvatarAndBanner(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository()
	p := createProfile(t, db, "jane")

	require.NoError(t, repo.UpdateAvatar(db, p.ID, "avatars/p/1-avatar.jpg", "avatars/p/1-avatar-thumb.jpg"))
	require.NoError(t, repo.UpdateBanner(db, p.ID, "banners/p/1-banner.jpg", "banners/p/1-banner-thumb.jpg"))

	got, err := repo.FindByID(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "avatars/p/1-avatar.jpg", got.AvatarURL)
	assert.Equal(t, "avatars/p/1-avatar-thumb.jpg", got.AvatarThumbURL)
	assert.Equal(t, "banners/p/1-banner.jpg", got.BannerURL)

	assert.ErrorIs(t, repo.UpdateAvatar(db, "missing", "a", "b"), ErrProfileNotFound)
}

func TestProfileReplaceCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository()
	catRepo := NewCategoryRepository()
	p := createProfile(t, db, "jane")

	seed := []models.Category{
		{Slug: "musician", Name: "Musician"},
		{Slug: "photographer", Name: "Photographer"},
		{Slug: "painter", Name: "Painter"},
	}
	require.NoError(t, catRepo.Seed(db, seed))

	cats, err := catRepo.FindBySlugs(db, []string{"musician", "painter"})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceCategories(db, p, cats))

	got, err := repo.FindByID(db, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Categories, 2)

	// Replace is idempotent and total.
	cats, err = catRepo.FindBySlugs(db, []string{"photographer"})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceCategories(db, p, cats))

	got, err = repo.FindByID(db, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "photographer", got.Categories[0].Slug)
}

func TestCategoryFindBySlugsRejectsUnknown(t *testing.T) {
	db := newTestDB(t)
	catRepo := NewCategoryRepository()
	require.NoError(t, catRepo.Seed(db, []models.Category{{Slug: "musician", Name: "Musician"}}))

	_, err := catRepo.FindBySlugs(db, []string{"musician", "astronaut"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategorySeedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	catRepo := NewCategoryRepository()

	seed := []models.Category{{Slug: "musician", Name: "Musician"}}
	require.NoError(t, catRepo.Seed(db, seed))
	require.NoError(t, catRepo.Seed(db, []models.Category{{Slug: "musician", Name: "Musician"}}))

	all, err := catRepo.FindAll(db)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSocialLinkExistsForPlatform(t *testing.T) {
	db := newTestDB(t)
	repo := NewSocialLinkRepository()
	p := createProfile(t, db, "jane")

	exists, err := repo.ExistsForPlatform(db, p.ID, models.PlatformInstagram)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(db, &models.SocialLink{
		ProfileID: p.ID, PlatformKey: models.PlatformInstagram, URL: "https://instagram.com/jane",
	}))

	exists, err = repo.ExistsForPlatform(db, p.ID, models.PlatformInstagram)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSocialLinkDeleteClosesGap(t *testing.T) {
	db := newTestDB(t)
	repo := NewSocialLinkRepository()
	p := createProfile(t, db, "jane")

	var ids []string
	for _, key := range []string{models.PlatformInstagram, models.PlatformWebsite, models.PlatformBandcamp} {
		l := &models.SocialLink{ProfileID: p.ID, PlatformKey: key, URL: "https://" + key + ".example"}
		require.NoError(t, repo.Create(db, l))
		ids = append(ids, l.ID)
	}

	require.NoError(t, repo.Delete(db, ids[1]))

	links, err := repo.FindByProfile(db, p.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, 1, links[0].Position)
	assert.Equal(t, 2, links[1].Position)
}

func TestLocationFindOrCreateDeduplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewLocationRepository()

	first := &models.Location{FormattedAddress: "Berlin, Germany", City: "Berlin"}
	require.NoError(t, repo.FindOrCreate(db, first))

	second := &models.Location{FormattedAddress: "Berlin, Germany"}
	require.NoError(t, repo.FindOrCreate(db, second))

	assert.Equal(t, first.ID, second.ID)
}

func TestUploadAuditRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewUploadRepository()
	p := createProfile(t, db, "jane")

	up := &models.Upload{
		ProfileID: p.ID, Category: "artworks",
		EntityType: "work", EntityID: "w1",
		Path:     "artworks/" + p.ID + "/1-work.jpg",
		MimeType: "image/jpeg", Size: 1234,
	}
	require.NoError(t, repo.Create(db, up))

	got, err := repo.FindByPath(db, up.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got.Size)

	usage, err := repo.StorageUsage(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), usage)

	require.NoError(t, repo.DeleteByPath(db, up.Path))
	_, err = repo.FindByPath(db, up.Path)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestUploadFindByEntity(t *testing.T) {
	db := newTestDB(t)
	repo := NewUploadRepository()
	p := createProfile(t, db, "jane")

	for _, path := range []string{
		"avatars/" + p.ID + "/1-avatar.jpg",
		"avatars/" + p.ID + "/1-avatar-thumb.jpg",
	} {
		require.NoError(t, repo.Create(db, &models.Upload{
			ProfileID: p.ID, Category: "avatars",
			EntityType: "profile", EntityID: p.ID,
			Path: path, MimeType: "image/jpeg", Size: 1,
		}))
	}
	require.NoError(t, repo.Create(db, &models.Upload{
		ProfileID: p.ID, Category: "artworks",
		EntityType: "work", EntityID: "other-work-1",
		Path: "artworks/" + p.ID + "/1-work.jpg", MimeType: "image/jpeg", Size: 1,
	}))

	got, err := repo.FindByEntity(db, "profile", p.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUploadFindOrphansSkipsReferencedPaths(t *testing.T) {
	db := newTestDB(t)
	repo := NewUploadRepository()
	p := createProfile(t, db, "jane")

	work := &models.Work{
		ProfileID: p.ID, Title: "Mural", Description: "d",
		MediaType: models.MediaTypeImage, MediaSource: models.MediaSourceUpload,
		SrcURL:   "artworks/" + p.ID + "/1-work.jpg",
		ThumbURL: "artworks/" + p.ID + "/1-work.jpg",
	}
	require.NoError(t, NewWorkRepository().Create(db, work))

	referenced := &models.Upload{
		ProfileID: p.ID, Category: "artworks",
		EntityType: "work", EntityID: work.ID,
		Path: work.SrcURL, MimeType: "image/jpeg", Size: 1,
	}
	orphan := &models.Upload{
		ProfileID: p.ID, Category: "artworks",
		EntityType: "work", EntityID: work.ID,
		Path: "artworks/" + p.ID + "/0-work.jpg", MimeType: "image/jpeg", Size: 1,
	}
	require.NoError(t, repo.Create(db, referenced))
	require.NoError(t, repo.Create(db, orphan))

	got, err := repo.FindOrphans(db, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, orphan.Path, got[0].Path)

	// A cutoff in the past reports nothing.
	got, err = repo.FindOrphans(db, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWorkCountByProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkRepository()
	p := createProfile(t, db, "jane")

	count, err := repo.CountByProfile(db, p.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Create(db, &models.Work{
			ProfileID: p.ID, Title: "W", Description: "d",
			MediaType: models.MediaTypeVideo, MediaSource: models.MediaSourceYouTube,
			SrcURL: "https://youtube.com/watch?v=dQw4w9WgXcQ",
		}))
	}

	count, err = repo.CountByProfile(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

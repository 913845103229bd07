package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"artlink_backend/internal/mediafield"
	"artlink_backend/internal/models"
	"artlink_backend/internal/repositories"
	"artlink_backend/internal/storage"
)

// fakeStorage is an in-memory Storage that records the order of save
// and delete calls and can fail on demand.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	ops     []string

	failSave   map[string]error
	failDelete map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:    make(map[string][]byte),
		failSave:   make(map[string]error),
		failDelete: make(map[string]error),
	}
}

func (f *fakeStorage) Save(ctx context.Context, path string, reader io.Reader, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "save "+path)
	if err, ok := f.failSave[path]; ok {
		return err
	}
	if _, exists := f.objects[path]; exists {
		return storage.ErrObjectExists
	}
	data, _ := io.ReadAll(reader)
	f.objects[path] = data
	return nil
}

func (f *fakeStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete "+path)
	if err, ok := f.failDelete[path]; ok {
		return err
	}
	delete(f.objects, path)
	return nil
}

func (f *fakeStorage) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[path]
	return ok, nil
}

func (f *fakeStorage) GetURL(ctx context.Context, path string) (string, error) {
	return "/files/" + path, nil
}

func (f *fakeStorage) GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "/signed/" + path, nil
}

func (f *fakeStorage) GetSize(ctx context.Context, path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.objects[path])), nil
}

func (f *fakeStorage) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[path]
	return ok
}

func (f *fakeStorage) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

// faultWorkRepo wraps the real repository and fails selected row
// writes, for exercising the compensation paths.
type faultWorkRepo struct {
	repositories.WorkRepository
	createErr      error
	updateMediaErr error
}

func (f *faultWorkRepo) Create(db *gorm.DB, work *models.Work) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.WorkRepository.Create(db, work)
}

func (f *faultWorkRepo) UpdateMedia(db *gorm.DB, id string, mediaType models.MediaType, mediaSource models.MediaSource, srcURL, thumbURL string) error {
	if f.updateMediaErr != nil {
		return f.updateMediaErr
	}
	return f.WorkRepository.UpdateMedia(db, id, mediaType, mediaSource, srcURL, thumbURL)
}

// fakeInvalidator records enqueued invalidations.
type fakeInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeInvalidator) EnqueueInvalidation(profileID, handle string, tags ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, handle)
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
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

type fixture struct {
	db           *gorm.DB
	store        *fakeStorage
	invalidator  *fakeInvalidator
	works        WorkService
	profileMedia ProfileMediaService
	links        SocialLinkService
	profiles     ProfileService
	discovery    DiscoveryService
	profile      *models.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStorage()
	inv := &fakeInvalidator{}

	workRepo := repositories.NewWorkRepository()
	profileRepo := repositories.NewProfileRepository()
	uploadRepo := repositories.NewUploadRepository()
	linkRepo := repositories.NewSocialLinkRepository()
	categoryRepo := repositories.NewCategoryRepository()
	locationRepo := repositories.NewLocationRepository()

	p := &models.Profile{
		UserID: "u1", Handle: "jane", DisplayName: "Jane",
		Plan: models.PlanTierFree, IsPublic: true,
	}
	require.NoError(t, profileRepo.Create(db, p))

	return &fixture{
		db:           db,
		store:        store,
		invalidator:  inv,
		works:        NewWorkService(workRepo, profileRepo, uploadRepo, store, inv),
		profileMedia: NewProfileMediaService(profileRepo, uploadRepo, store, inv),
		links:        NewSocialLinkService(linkRepo, profileRepo, inv),
		profiles:     NewProfileService(profileRepo, categoryRepo, locationRepo, inv),
		discovery:    NewDiscoveryService(workRepo, profileRepo, categoryRepo),
		profile:      p,
	}
}

func imageMedia(path string) *mediafield.FinalizedMedia {
	return &mediafield.FinalizedMedia{
		MediaType:   models.MediaTypeImage,
		MediaSource: models.MediaSourceUpload,
		StoragePath: path,
		ThumbPath:   path, // work images store one object
		Data:        []byte("jpeg-bytes"),
		ThumbData:   []byte("jpeg-bytes"),
		ContentType: "image/jpeg",
	}
}

func videoMedia(url string) *mediafield.FinalizedMedia {
	return &mediafield.FinalizedMedia{
		MediaType:   models.MediaTypeVideo,
		MediaSource: models.MediaSourceYouTube,
		SourceURL:   url,
	}
}

func TestCreateWorkUploadsSingleObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "Wall piece"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "artworks/p1/1-work.jpg", work.SrcURL)
	assert.Equal(t, work.SrcURL, work.ThumbURL)
	assert.True(t, f.store.has("artworks/p1/1-work.jpg"))
	assert.Equal(t, []string{"save artworks/p1/1-work.jpg"}, f.store.opLog(),
		"full and thumb share one object; exactly one save")
	assert.Equal(t, 1, f.invalidator.count())
}

func TestCreateWorkValidationNeverTouchesStorage(t *testing.T) {
	f := newFixture(t)

	_, err := f.works.CreateWork(context.Background(), f.db, f.profile.ID,
		WorkTextInput{Title: "", Description: ""},
		imageMedia("artworks/p1/2-work.jpg"))
	require.Error(t, err)
	assert.Empty(t, f.store.opLog())
	assert.Equal(t, 0, f.invalidator.count())
}

func TestCreateWorkLinkedMediaOwnsNoObjects(t *testing.T) {
	f := newFixture(t)

	work, err := f.works.CreateWork(context.Background(), f.db, f.profile.ID,
		WorkTextInput{Title: "Video", Description: "Live set"},
		videoMedia("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", work.SrcURL)
	assert.Empty(t, work.ThumbURL)
	assert.Empty(t, f.store.opLog())
}

func TestDeleteWorkRemovesStorageBeforeRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	require.NoError(t, f.works.DeleteWork(ctx, f.db, work.ID))

	// Shared full/thumb path deletes exactly once.
	assert.Equal(t, []string{
		"save artworks/p1/1-work.jpg",
		"delete artworks/p1/1-work.jpg",
	}, f.store.opLog())
	assert.False(t, f.store.has("artworks/p1/1-work.jpg"))

	_, err = f.works.GetWork(f.db, work.ID)
	assert.Error(t, err)
}

func TestDeleteWorkStorageFailureDoesNotBlockRowDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	f.store.failDelete["artworks/p1/1-work.jpg"] = errors.New("storage down")

	require.NoError(t, f.works.DeleteWork(ctx, f.db, work.ID),
		"storage failure is logged, row delete proceeds")

	_, err = f.works.GetWork(f.db, work.ID)
	assert.Error(t, err)
}

func TestDeleteLinkedWorkTouchesNoStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Video", Description: "d"},
		videoMedia("https://vimeo.com/123456789"))
	require.NoError(t, err)

	require.NoError(t, f.works.DeleteWork(ctx, f.db, work.ID))
	assert.Empty(t, f.store.opLog())
}

func TestReplaceMediaOrderingNewUploadRowSwapOldDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	updated, err := f.works.UpdateWork(ctx, f.db, work.ID,
		WorkTextInput{Title: "Mural v2", Description: "d"},
		imageMedia("artworks/p1/2-work.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "artworks/p1/2-work.jpg", updated.SrcURL)
	assert.Equal(t, []string{
		"save artworks/p1/1-work.jpg",
		"save artworks/p1/2-work.jpg",
		"delete artworks/p1/1-work.jpg",
	}, f.store.opLog(), "upload new, swap row, then delete old")
	assert.True(t, f.store.has("artworks/p1/2-work.jpg"))
	assert.False(t, f.store.has("artworks/p1/1-work.jpg"))
}

func TestReplaceMediaUploadFailureLeavesOldIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	f.store.failSave["artworks/p1/2-work.jpg"] = errors.New("storage down")

	_, err = f.works.UpdateWork(ctx, f.db, work.ID,
		WorkTextInput{Title: "Mural v2", Description: "d"},
		imageMedia("artworks/p1/2-work.jpg"))
	require.Error(t, err)

	// Old object and row reference untouched.
	assert.True(t, f.store.has("artworks/p1/1-work.jpg"))
	got, err := f.works.GetWork(f.db, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "artworks/p1/1-work.jpg", got.SrcURL)
}

func TestReplaceMediaRowWriteFailureRemovesNewObjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	faulty := &faultWorkRepo{
		WorkRepository: repositories.NewWorkRepository(),
		updateMediaErr: errors.New("db down"),
	}
	works := NewWorkService(faulty, repositories.NewProfileRepository(),
		repositories.NewUploadRepository(), f.store, f.invalidator)

	_, err = works.UpdateWork(ctx, f.db, work.ID,
		WorkTextInput{Title: "Mural v2", Description: "d"},
		imageMedia("artworks/p1/2-work.jpg"))
	require.Error(t, err)

	// The new object landed and was compensated; the old one was
	// never touched.
	assert.Equal(t, []string{
		"save artworks/p1/1-work.jpg",
		"save artworks/p1/2-work.jpg",
		"delete artworks/p1/2-work.jpg",
	}, f.store.opLog())
	assert.True(t, f.store.has("artworks/p1/1-work.jpg"))
	assert.False(t, f.store.has("artworks/p1/2-work.jpg"))

	got, err := f.works.GetWork(f.db, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "artworks/p1/1-work.jpg", got.SrcURL)
}

func TestCreateWorkRowInsertFailureRemovesUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	faulty := &faultWorkRepo{
		WorkRepository: repositories.NewWorkRepository(),
		createErr:      errors.New("db down"),
	}
	works := NewWorkService(faulty, repositories.NewProfileRepository(),
		repositories.NewUploadRepository(), f.store, f.invalidator)

	_, err := works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.Error(t, err)

	assert.Equal(t, []string{
		"save artworks/p1/1-work.jpg",
		"delete artworks/p1/1-work.jpg",
	}, f.store.opLog())
	assert.False(t, f.store.has("artworks/p1/1-work.jpg"))
	assert.Equal(t, 0, f.invalidator.count())
}

func TestReplaceMediaFromUploadToLinkRemovesOldObject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Mural", Description: "d"},
		imageMedia("artworks/p1/1-work.jpg"))
	require.NoError(t, err)

	updated, err := f.works.UpdateWork(ctx, f.db, work.ID,
		WorkTextInput{Title: "Now a video", Description: "d"},
		videoMedia("https://vimeo.com/123456789"))
	require.NoError(t, err)

	assert.Equal(t, models.MediaTypeVideo, updated.MediaType)
	assert.False(t, f.store.has("artworks/p1/1-work.jpg"),
		"the replaced upload's object is removed")
}

func TestReorderWorksRequiresFullSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "One", Description: "d"},
		videoMedia("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	require.NoError(t, err)
	second, err := f.works.CreateWork(ctx, f.db, f.profile.ID,
		WorkTextInput{Title: "Two", Description: "d"},
		videoMedia("https://vimeo.com/123456789"))
	require.NoError(t, err)

	err = f.works.ReorderWorks(ctx, f.db, f.profile.ID, []string{second.ID})
	require.Error(t, err, "a partial permutation would corrupt positions")

	require.NoError(t, f.works.ReorderWorks(ctx, f.db, f.profile.ID,
		[]string{second.ID, first.ID}))

	works, err := f.works.ListWorks(f.db, f.profile.ID)
	require.NoError(t, err)
	require.Len(t, works, 2)
	assert.Equal(t, second.ID, works[0].ID)
	assert.Equal(t, first.ID, works[1].ID)
}

func TestSetAvatarUploadsBothVariantsAndCleansOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	media := &mediafield.FinalizedMedia{
		MediaType:   models.MediaTypeImage,
		MediaSource: models.MediaSourceUpload,
		StoragePath: "avatars/p1/1-avatar.jpg",
		ThumbPath:   "avatars/p1/1-avatar-thumb.jpg",
		Data:        []byte("full"),
		ThumbData:   []byte("thumb"),
		ContentType: "image/jpeg",
	}

	profile, err := f.profileMedia.SetAvatar(ctx, f.db, f.profile.ID, media)
	require.NoError(t, err)
	assert.Equal(t, "avatars/p1/1-avatar.jpg", profile.AvatarURL)
	assert.Equal(t, "avatars/p1/1-avatar-thumb.jpg", profile.AvatarThumbURL)
	assert.True(t, f.store.has("avatars/p1/1-avatar.jpg"))
	assert.True(t, f.store.has("avatars/p1/1-avatar-thumb.jpg"))

	// Replace: old pair goes away after the swap.
	next := &mediafield.FinalizedMedia{
		MediaType:   models.MediaTypeImage,
		MediaSource: models.MediaSourceUpload,
		StoragePath: "avatars/p1/2-avatar.jpg",
		ThumbPath:   "avatars/p1/2-avatar-thumb.jpg",
		Data:        []byte("full2"),
		ThumbData:   []byte("thumb2"),
		ContentType: "image/jpeg",
	}
	profile, err = f.profileMedia.SetAvatar(ctx, f.db, f.profile.ID, next)
	require.NoError(t, err)
	assert.Equal(t, "avatars/p1/2-avatar.jpg", profile.AvatarURL)
	assert.False(t, f.store.has("avatars/p1/1-avatar.jpg"))
	assert.False(t, f.store.has("avatars/p1/1-avatar-thumb.jpg"))
}

func TestSetAvatarUploadFailureCompensates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.failSave["avatars/p1/1-avatar-thumb.jpg"] = errors.New("storage down")

	_, err := f.profileMedia.SetAvatar(ctx, f.db, f.profile.ID, &mediafield.FinalizedMedia{
		MediaType:   models.MediaTypeImage,
		MediaSource: models.MediaSourceUpload,
		StoragePath: "avatars/p1/1-avatar.jpg",
		ThumbPath:   "avatars/p1/1-avatar-thumb.jpg",
		Data:        []byte("full"),
		ThumbData:   []byte("thumb"),
		ContentType: "image/jpeg",
	})
	require.Error(t, err)

	// The variant that landed is cleaned up.
	assert.False(t, f.store.has("avatars/p1/1-avatar.jpg"))

	got, err := f.profiles.GetByHandle(f.db, "jane")
	require.NoError(t, err)
	assert.Empty(t, got.AvatarURL)
}

func TestAddLinkRejectsSecondInstagram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.links.AddLink(ctx, f.db, f.profile.ID, SocialLinkInput{
		PlatformKey: models.PlatformInstagram, URL: "https://instagram.com/jane",
	})
	require.NoError(t, err)

	_, err = f.links.AddLink(ctx, f.db, f.profile.ID, SocialLinkInput{
		PlatformKey: models.PlatformInstagram, URL: "https://instagram.com/jane2",
	})
	require.Error(t, err)
	assert.Equal(t, "Only one Instagram link is allowed", FriendlyMessage(err))
}

func TestAddLinkCustomPlatformMayRepeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, url := range []string{"https://a.example", "https://b.example"} {
		_, err := f.links.AddLink(ctx, f.db, f.profile.ID, SocialLinkInput{
			PlatformKey: models.PlatformCustom, URL: url, Label: "Site",
		})
		require.NoError(t, err)
	}

	links, err := f.links.ListLinks(f.db, f.profile.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestUpdateProfileEnforcesPlanCategoryCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	catRepo := repositories.NewCategoryRepository()
	var seed []models.Category
	for _, slug := range []string{"a", "b", "c", "d"} {
		seed = append(seed, models.Category{Slug: slug, Name: slug})
	}
	require.NoError(t, catRepo.Seed(f.db, seed))

	// Free plan caps at 3.
	_, err := f.profiles.UpdateProfile(ctx, f.db, f.profile.ID, ProfileUpdateInput{
		DisplayName:   "Jane",
		CategorySlugs: []string{"a", "b", "c", "d"},
	})
	require.Error(t, err)
	assert.Contains(t, FriendlyMessage(err), "Category limit")

	got, err := f.profiles.UpdateProfile(ctx, f.db, f.profile.ID, ProfileUpdateInput{
		DisplayName:   "Jane",
		CategorySlugs: []string{"a", "b", "c"},
	})
	require.NoError(t, err)
	assert.Len(t, got.Categories, 3)
}

func TestUpdateProfileDeduplicatesLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.profiles.UpdateProfile(ctx, f.db, f.profile.ID, ProfileUpdateInput{
		DisplayName: "Jane",
		Bio:         "Painter in Berlin",
		Location:    &LocationInput{FormattedAddress: "Berlin, Germany", City: "Berlin"},
	})
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Berlin", got.Location.City)
}

func TestDiscoveryHomeSectionsBackfill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	catRepo := repositories.NewCategoryRepository()
	profileRepo := repositories.NewProfileRepository()
	require.NoError(t, catRepo.Seed(f.db, []models.Category{{Slug: "musician", Name: "Musician"}}))

	// Two more public profiles, neither categorized.
	for _, h := range []string{"amy", "bob"} {
		require.NoError(t, profileRepo.Create(f.db, &models.Profile{
			UserID: "u-" + h, Handle: h, DisplayName: h,
			Plan: models.PlanTierFree, IsPublic: true,
		}))
	}

	// Jane is the only musician.
	_, err := f.profiles.UpdateProfile(ctx, f.db, f.profile.ID, ProfileUpdateInput{
		DisplayName: "Jane", CategorySlugs: []string{"musician"},
	})
	require.NoError(t, err)

	sections, err := f.discovery.HomeSections(f.db, 3)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Len(t, sections[0].Profiles, 3, "random public profiles backfill the section")
}

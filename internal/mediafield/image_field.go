package mediafield

import (
	"context"
	"image"
	"sync"
	"time"

	"artlink_backend/internal/imageproc"
	"artlink_backend/internal/models"
	"artlink_backend/internal/storage"
	"artlink_backend/pkg/apperrors"
)

// ImageFieldConfig sizes and wires one image field controller.
type ImageFieldConfig struct {
	OwnerID  string
	Kind     string // "work", "avatar", "banner"
	Category string // storage path category

	MaxDecodeDim int
	Quality      int

	OutputWidth  int
	OutputHeight int

	// Thumbnail variant; zero means the full object doubles as the
	// thumbnail (single storage object, shared path).
	ThumbWidth  int
	ThumbHeight int

	// Preview regeneration cadence.
	Debounce time.Duration

	OnValidity func(bool)

	// Now is swappable for deterministic storage paths in tests.
	Now func() time.Time
}

// ImageField owns the select/decode/crop/preview state for an
// uploaded image. Validity requires a selected file that decoded, a
// committed crop rectangle, and no preview regeneration in flight.
type ImageField struct {
	mu  sync.Mutex
	cfg ImageFieldConfig

	fileName string
	canvas   *image.NRGBA

	crop          image.Rectangle
	zoom          float64
	cropCommitted bool

	// Preview regeneration: each crop change bumps gen; a pending
	// debounce timer and any in-flight generation carrying an older
	// gen are superseded and never publish their result.
	gen          uint64
	regenPending bool
	debounce     *time.Timer
	cancelRegen  context.CancelFunc
	previewData  []byte
	regens       int

	notifier validityNotifier
}

// NewImageField builds an image field controller.
func NewImageField(cfg ImageFieldConfig) *ImageField {
	if cfg.MaxDecodeDim == 0 {
		cfg.MaxDecodeDim = 2000
	}
	if cfg.Quality == 0 {
		cfg.Quality = 85
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 150 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ImageField{
		cfg:      cfg,
		zoom:     1,
		notifier: validityNotifier{callback: cfg.OnValidity},
	}
}

func (f *ImageField) MediaType() models.MediaType { return models.MediaTypeImage }

// Select decodes the uploaded file into the working canvas. A decode
// failure clears the selection; the user must re-select.
func (f *ImageField) Select(fileName string, data []byte) error {
	canvas, err := imageproc.DecodeAndDownscale(data, f.cfg.MaxDecodeDim)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.resetLocked()
		if apperrors.Is(err, imageproc.ErrUnsupportedFormat) {
			return apperrors.ErrInvalidFileType.WithError(err)
		}
		return apperrors.ErrDecodeFailed.WithError(err)
	}

	f.fileName = fileName
	f.canvas = canvas
	f.crop = canvas.Bounds()
	f.zoom = 1
	f.cropCommitted = false
	f.previewData = nil
	f.recomputeValidityLocked()
	return nil
}

// SetCrop commits a new crop rectangle (source-canvas pixel
// coordinates) and zoom factor, and schedules a debounced preview
// regeneration. Starting a new regeneration supersedes any pending
// or in-flight one, so stale previews never overwrite fresher ones.
func (f *ImageField) SetCrop(rect image.Rectangle, zoom float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.canvas == nil {
		return apperrors.ErrInvalidOperation("media", "no image selected")
	}
	if rect.Intersect(f.canvas.Bounds()).Empty() {
		return apperrors.NewBadRequestError("Crop rectangle is outside the image")
	}

	f.crop = rect
	f.zoom = zoom
	f.cropCommitted = true

	f.gen++
	gen := f.gen

	if f.debounce != nil {
		f.debounce.Stop()
	}
	if f.cancelRegen != nil {
		f.cancelRegen()
		f.cancelRegen = nil
	}

	f.regenPending = true
	f.recomputeValidityLocked()

	f.debounce = time.AfterFunc(f.cfg.Debounce, func() {
		f.regenerate(gen)
	})
	return nil
}

// regenerate runs one preview generation, publishing the result only
// when it is still the newest request.
func (f *ImageField) regenerate(gen uint64) {
	f.mu.Lock()
	if gen != f.gen || f.canvas == nil {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancelRegen = cancel
	canvas, crop := f.canvas, f.crop
	outW, outH := f.previewDimsLocked()
	quality := f.cfg.Quality
	f.regens++
	f.mu.Unlock()

	data, err := imageproc.CropRegion(canvas, crop, outW, outH, imageproc.CropOptions{Quality: quality})

	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil || gen != f.gen {
		return // superseded mid-flight
	}
	if err == nil {
		f.previewData = data
	}
	f.regenPending = false
	f.cancelRegen = nil
	f.recomputeValidityLocked()
}

// previewDimsLocked halves the output size for the interactive
// preview; the final crop still runs at full output resolution.
func (f *ImageField) previewDimsLocked() (int, int) {
	w, h := f.cfg.OutputWidth/2, f.cfg.OutputHeight/2
	if w < 1 {
		w = f.cfg.OutputWidth
	}
	if h < 1 {
		h = f.cfg.OutputHeight
	}
	return w, h
}

// Preview returns the latest generated preview bytes, nil while none
// has been produced yet.
func (f *ImageField) Preview() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewData
}

// Finalize performs the final crop at full output resolution and
// returns the encoded bytes plus their timestamp-derived storage
// paths.
func (f *ImageField) Finalize(ctx context.Context) (*FinalizedMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.validLocked() {
		return nil, apperrors.ErrMediaNotReady
	}

	data, err := imageproc.CropRegion(f.canvas, f.crop, f.cfg.OutputWidth, f.cfg.OutputHeight, imageproc.CropOptions{Quality: f.cfg.Quality})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ts := f.cfg.Now()
	fin := &FinalizedMedia{
		MediaType:   models.MediaTypeImage,
		MediaSource: models.MediaSourceUpload,
		StoragePath: storage.ObjectPath(f.cfg.Category, f.cfg.OwnerID, f.cfg.Kind, ts),
		Data:        data,
		ContentType: "image/jpeg",
	}

	if f.cfg.ThumbWidth > 0 && f.cfg.ThumbHeight > 0 {
		thumb, err := imageproc.CropRegion(f.canvas, f.crop, f.cfg.ThumbWidth, f.cfg.ThumbHeight, imageproc.CropOptions{Quality: f.cfg.Quality})
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		fin.ThumbPath = storage.ThumbPath(f.cfg.Category, f.cfg.OwnerID, f.cfg.Kind, ts)
		fin.ThumbData = thumb
	} else {
		// Single object: the full image doubles as its thumbnail.
		fin.ThumbPath = fin.StoragePath
		fin.ThumbData = data
	}

	return fin, nil
}

func (f *ImageField) CurrentRawInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileName
}

// Clear drops the selection and aborts any pending preview work.
func (f *ImageField) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *ImageField) resetLocked() {
	if f.debounce != nil {
		f.debounce.Stop()
		f.debounce = nil
	}
	if f.cancelRegen != nil {
		f.cancelRegen()
		f.cancelRegen = nil
	}
	f.gen++
	f.fileName = ""
	f.canvas = nil
	f.crop = image.Rectangle{}
	f.zoom = 1
	f.cropCommitted = false
	f.regenPending = false
	f.previewData = nil
	f.recomputeValidityLocked()
}

func (f *ImageField) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validLocked()
}

func (f *ImageField) validLocked() bool {
	return f.canvas != nil && f.cropCommitted && !f.regenPending
}

func (f *ImageField) recomputeValidityLocked() {
	f.notifier.set(f.validLocked())
}

// regenCount is test-visible: the number of preview generations that
// actually ran (superseded requests never count).
func (f *ImageField) regenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regens
}

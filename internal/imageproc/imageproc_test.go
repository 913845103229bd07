package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPNG encodes a w x h gradient as PNG bytes.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	data, err := EncodePNG(img)
	require.NoError(t, err)
	return data
}

func TestDecodeAndDownscaleBoundsDimensions(t *testing.T) {
	data := testPNG(t, 3000, 1500)

	canvas, err := DecodeAndDownscale(data, 2000)
	require.NoError(t, err)

	assert.Equal(t, 2000, canvas.Bounds().Dx())
	assert.Equal(t, 1000, canvas.Bounds().Dy())
}

func TestDecodeAndDownscaleKeepsSmallImages(t *testing.T) {
	data := testPNG(t, 640, 480)

	canvas, err := DecodeAndDownscale(data, 2000)
	require.NoError(t, err)

	assert.Equal(t, 640, canvas.Bounds().Dx())
	assert.Equal(t, 480, canvas.Bounds().Dy())
}

func TestDecodeAndDownscaleIdempotentDimensions(t *testing.T) {
	data := testPNG(t, 2400, 1800)

	first, err := DecodeAndDownscale(data, 2000)
	require.NoError(t, err)
	second, err := DecodeAndDownscale(data, 2000)
	require.NoError(t, err)

	assert.Equal(t, first.Bounds(), second.Bounds())
}

func TestDecodeRejectsNonImages(t *testing.T) {
	_, err := DecodeAndDownscale([]byte("definitely not an image"), 2000)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeRejectsUnsupportedFormats(t *testing.T) {
	// GIF header; decodes fine elsewhere but is not an accepted type.
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	_, err := DecodeAndDownscale(gif, 2000)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCropRegionExactOutputDimensions(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 800, 600))

	tests := []struct {
		name       string
		rect       image.Rectangle
		outW, outH int
	}{
		{"matching aspect", image.Rect(0, 0, 400, 300), 400, 300},
		{"wide crop into square", image.Rect(0, 0, 800, 200), 300, 300},
		{"tall crop into wide", image.Rect(0, 0, 100, 600), 900, 300},
		{"tiny crop upscaled", image.Rect(10, 10, 20, 20), 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := CropRegion(canvas, tt.rect, tt.outW, tt.outH, CropOptions{Quality: 85})
			require.NoError(t, err)

			img, err := jpeg.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.outW, img.Bounds().Dx())
			assert.Equal(t, tt.outH, img.Bounds().Dy())
		})
	}
}

func TestCropRegionLetterboxUsesBackground(t *testing.T) {
	// Solid black canvas, wide crop into a square output: the top
	// rows must come from the letterbox fill, not the image.
	canvas := image.NewNRGBA(image.Rect(0, 0, 800, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 800; x++ {
			canvas.Set(x, y, color.NRGBA{A: 255})
		}
	}

	data, err := CropRegion(canvas, image.Rect(0, 0, 800, 200), 400, 400, CropOptions{
		Quality:    95,
		Background: color.White,
	})
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b, _ := img.At(200, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240), "letterbox should be near-white")
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCropRegionDeterministic(t *testing.T) {
	data := testPNG(t, 500, 500)
	canvas, err := DecodeAndDownscale(data, 2000)
	require.NoError(t, err)

	a, err := CropRegion(canvas, image.Rect(50, 50, 450, 450), 300, 300, CropOptions{Quality: 85})
	require.NoError(t, err)
	b, err := CropRegion(canvas, image.Rect(50, 50, 450, 450), 300, 300, CropOptions{Quality: 85})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCropRegionRejectsOutOfBoundsRect(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	_, err := CropRegion(canvas, image.Rect(200, 200, 300, 300), 100, 100, CropOptions{})
	assert.Error(t, err)
}

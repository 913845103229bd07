// Package imageproc is the two-phase image pipeline behind uploaded
// works, avatars and banners: decode+downscale a raw file into a
// bounded working canvas, then crop a user-selected region into an
// exactly-sized encoded output. Both phases are deterministic for
// identical inputs.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// Accepted input formats. Everything else, camera-RAW-like formats
// included, is rejected before any decode work happens.
var acceptedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AcceptedMIME reports whether mime is an accepted upload type.
func AcceptedMIME(mime string) bool {
	return acceptedMIMEs[strings.ToLower(strings.TrimSpace(mime))]
}

// DecodeAndDownscale turns raw file bytes into a working canvas.
// EXIF orientation is honored, and the result is scaled down
// (preserving aspect ratio) so neither dimension exceeds maxDim.
// This bounds memory and compute for the interactive cropping that
// follows, regardless of input size.
func DecodeAndDownscale(data []byte, maxDim int) (*image.NRGBA, error) {
	mime := http.DetectContentType(data)
	if !AcceptedMIME(mime) {
		return nil, fmt.Errorf("unsupported image type %s: %w", mime, ErrUnsupportedFormat)
	}

	var (
		img image.Image
		err error
	)
	if mime == "image/webp" {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w: %v", ErrDecode, err)
	}

	b := img.Bounds()
	if b.Dx() > maxDim || b.Dy() > maxDim {
		return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos), nil
	}
	return imaging.Clone(img), nil
}

// CropOptions configures the encoded crop output.
type CropOptions struct {
	Quality    int         // JPEG quality, 1-100
	Background color.Color // letterbox fill for aspect mismatches
}

// CropRegion draws the given source-pixel rectangle scaled onto an
// outW x outH canvas and encodes it as JPEG. The output dimensions
// always equal exactly outW x outH: when the crop's aspect ratio
// differs, the image is fitted and letterboxed with the background
// fill.
func CropRegion(src image.Image, rect image.Rectangle, outW, outH int, opts CropOptions) ([]byte, error) {
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", outW, outH)
	}

	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop rectangle outside the canvas")
	}

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = 85
	}

	region := imaging.Crop(src, rect)
	fitted := imaging.Fit(region, outW, outH, imaging.Lanczos)

	canvas := imaging.New(outW, outH, bg)
	canvas = imaging.PasteCenter(canvas, fitted)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG is used by tests and debug tooling to round-trip
// canvases losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package imageproc

import "errors"

var (
	// ErrUnsupportedFormat marks a MIME type outside JPEG/PNG/WebP,
	// detected before any decode work.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrDecode marks bytes that claimed an accepted type but could
	// not be decoded.
	ErrDecode = errors.New("image decode failed")
)

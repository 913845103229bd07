package apperrors

import (
	"net/http"
)

// Factories and predefined errors for the media/portfolio domain.

// ErrNotFound converts a repository miss (gorm.ErrRecordNotFound and
// friends) into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrConflict builds a domain-specific 409.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation builds a domain-specific 400.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Uploads & media ---

// ErrFileTooLarge rejects files over the configured byte limit.
var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// ErrInvalidFileType rejects MIME types outside JPEG/PNG/WebP.
var ErrInvalidFileType = New(
	CodeInvalidFileType,
	"media",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

// ErrDecodeFailed marks bytes that could not be interpreted as an
// accepted image format. The client clears the selection on this.
var ErrDecodeFailed = New(
	CodeDecodeFailed,
	"media",
	"The file could not be decoded as an image",
	http.StatusUnprocessableEntity,
)

// ErrPathCollision marks a non-overwriting upload hitting an existing
// object. Paths are timestamp-derived, so a collision indicates a bug
// or clock anomaly rather than a user mistake.
var ErrPathCollision = New(
	CodeConflict,
	"storage",
	"Storage path already occupied",
	http.StatusConflict,
)

// ErrMediaNotReady marks a finalize call against a field controller
// whose validity preconditions are not met.
var ErrMediaNotReady = New(
	CodeInvalidOperation,
	"media",
	"Media selection is not ready to be saved",
	http.StatusBadRequest,
)

// ErrCategoryLimit rejects category assignments over the plan maximum.
var ErrCategoryLimit = New(
	CodeLimitExceeded,
	"profile",
	"Category limit for the current plan reached",
	http.StatusForbidden,
)

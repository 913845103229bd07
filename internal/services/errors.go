package services

import (
	"strings"

	"artlink_backend/internal/models"
	"artlink_backend/internal/storage"
	"artlink_backend/pkg/apperrors"
)

// FriendlyMessage pattern-matches raw backend errors for known
// substrings and produces friendlier user-facing text; unknown errors
// pass through verbatim. Handlers call this at the orchestrator
// boundary before responding.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		return appErr.Message
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case apperrors.Is(err, storage.ErrObjectExists):
		return "An upload with this name already exists. Please try again."
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		if platform := platformFromConstraintError(lower); platform != "" {
			return "Only one " + platform + " link is allowed"
		}
		return "That value is already taken."
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "timeout"):
		return "We couldn't reach the server. Please try again."
	}

	return msg
}

// isUniqueViolation matches the driver-specific unique-constraint
// error texts (postgres and sqlite).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "unique constraint")
}

// platformFromConstraintError extracts the platform name when a
// unique-constraint error mentions a known platform key.
func platformFromConstraintError(msg string) string {
	for key, label := range models.PlatformLabels {
		if key == models.PlatformCustom {
			continue
		}
		if strings.Contains(msg, key) {
			return label
		}
	}
	return ""
}

package models

import (
	"gorm.io/datatypes"
)

// Upload is the audit row for a stored object. It records what was
// written where and for which entity; the owning entity (Work or
// Profile) keeps the authoritative reference. Orphans left behind by
// interrupted sagas are visible here but not reconciled in-process.
type Upload struct {
	BaseModel
	ProfileID  string `gorm:"not null;index" json:"profile_id"`
	Category   string `gorm:"size:16;not null" json:"category"` // avatars, banners, artworks
	EntityType string `gorm:"size:32" json:"entity_type"`       // "work", "profile"
	EntityID   string `gorm:"index" json:"entity_id"`
	Path       string `gorm:"not null;uniqueIndex" json:"path"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`

	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

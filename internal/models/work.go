package models

// Work is a single portfolio media entry owned by a profile: an
// uploaded image, or a linked video/audio track.
//
// Invariant: when MediaSource is "upload" the storage objects behind
// SrcURL/ThumbURL are exclusively owned by this Work and must be
// removed when the Work is deleted or its media replaced. Linked
// media owns no storage objects and ThumbURL stays empty.
type Work struct {
	BaseModel
	ProfileID   string      `gorm:"not null;index" json:"profile_id"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"size:500" json:"description"`
	MediaType   MediaType   `gorm:"size:16;not null" json:"media_type"`
	MediaSource MediaSource `gorm:"size:16;not null" json:"media_source"`

	// SrcURL is a storage-relative path for uploads, the normalized
	// external URL for linked media.
	SrcURL   string `gorm:"not null" json:"src_url"`
	ThumbURL string `json:"thumb_url"`

	Position int `gorm:"default:0" json:"position"`

	Profile *Profile `gorm:"foreignKey:ProfileID" json:"-"`
}

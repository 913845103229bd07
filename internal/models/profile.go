package models

// Profile is a creative professional's public-facing record.
type Profile struct {
	BaseModel
	UserID      string   `gorm:"uniqueIndex;not null" json:"user_id"`
	Handle      string   `gorm:"uniqueIndex;not null" json:"handle"`
	DisplayName string   `gorm:"not null" json:"display_name"`
	Bio         string   `gorm:"size:800" json:"bio"`
	Plan        PlanTier `gorm:"size:16;default:'free'" json:"plan"`

	// Avatar and banner each keep a full and a thumbnail storage
	// variant; the banner crops to a 3:1 aspect.
	AvatarURL      string `json:"avatar_url"`
	AvatarThumbURL string `json:"avatar_thumb_url"`
	BannerURL      string `json:"banner_url"`
	BannerThumbURL string `json:"banner_thumb_url"`

	LocationID *string   `gorm:"index" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`

	IsPublic bool `gorm:"default:true" json:"is_public"`

	Categories  []Category   `gorm:"many2many:profile_categories" json:"categories,omitempty"`
	SocialLinks []SocialLink `gorm:"foreignKey:ProfileID" json:"social_links,omitempty"`
	Works       []Work       `gorm:"foreignKey:ProfileID" json:"-"`
}

// Location is a shared lookup entity keyed by formatted address, so
// profiles in the same place denormalize onto one row.
type Location struct {
	BaseModel
	FormattedAddress string  `gorm:"uniqueIndex;not null" json:"formatted_address"`
	City             string  `json:"city"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Category is a discoverable discipline (musician, photographer, ...).
type Category struct {
	BaseModel
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
	Name string `gorm:"not null" json:"name"`
}

// SocialLink is one entry of a profile's ordered link collection.
// At most one link per platform key, except "custom" which repeats.
type SocialLink struct {
	BaseModel
	ProfileID   string `gorm:"not null;index:idx_social_profile_platform" json:"profile_id"`
	PlatformKey string `gorm:"size:32;not null;index:idx_social_profile_platform" json:"platform_key"`
	URL         string `gorm:"not null" json:"url"`
	Label       string `json:"label"`
	Position    int    `gorm:"default:0" json:"position"`
}

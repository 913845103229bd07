package models

// MediaType is the kind of a portfolio work.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeAudio MediaType = "audio"
)

// MediaSource is the provenance of a work's media: "upload" for
// image files we store ourselves, a provider tag for linked media.
type MediaSource string

const (
	MediaSourceUpload     MediaSource = "upload"
	MediaSourceYouTube    MediaSource = "youtube"
	MediaSourceVimeo      MediaSource = "vimeo"
	MediaSourceMux        MediaSource = "mux"
	MediaSourceOtherURL   MediaSource = "other_url"
	MediaSourceSpotify    MediaSource = "spotify"
	MediaSourceSoundCloud MediaSource = "soundcloud"
)

// IsUpload reports whether the source owns storage objects.
func (s MediaSource) IsUpload() bool {
	return s == MediaSourceUpload
}

// PlanTier controls plan-dependent limits (category count).
type PlanTier string

const (
	PlanTierFree PlanTier = "free"
	PlanTierPro  PlanTier = "pro"
)

// MaxCategories is the plan-dependent category cap.
func (p PlanTier) MaxCategories() int {
	if p == PlanTierPro {
		return 8
	}
	return 3
}

// Social link platform keys. PlatformCustom may repeat per profile,
// every other key is unique per profile.
const (
	PlatformInstagram  = "instagram"
	PlatformFacebook   = "facebook"
	PlatformTwitter    = "twitter"
	PlatformTikTok     = "tiktok"
	PlatformYouTube    = "youtube"
	PlatformSpotify    = "spotify"
	PlatformSoundCloud = "soundcloud"
	PlatformBandcamp   = "bandcamp"
	PlatformWebsite    = "website"
	PlatformCustom     = "custom"
)

// PlatformLabels maps platform keys to their display names, used in
// user-facing uniqueness errors.
var PlatformLabels = map[string]string{
	PlatformInstagram:  "Instagram",
	PlatformFacebook:   "Facebook",
	PlatformTwitter:    "Twitter",
	PlatformTikTok:     "TikTok",
	PlatformYouTube:    "YouTube",
	PlatformSpotify:    "Spotify",
	PlatformSoundCloud: "SoundCloud",
	PlatformBandcamp:   "Bandcamp",
	PlatformWebsite:    "Website",
	PlatformCustom:     "Custom",
}

// KnownPlatform reports whether key is a recognized platform key.
func KnownPlatform(key string) bool {
	_, ok := PlatformLabels[key]
	return ok
}

package config

// MediaConfig bounds the media pipeline: upload limits, decode
// normalization, crop output sizes, preview timing.
type MediaConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	MaxDecodeDim   int   `yaml:"max_decode_dim"` // neither canvas dimension exceeds this after decode
	JPEGQuality    int   `yaml:"jpeg_quality"`

	PreviewDebounceMS      int `yaml:"preview_debounce_ms"`
	VideoSkeletonTimeoutMS int `yaml:"video_skeleton_timeout_ms"`
	AudioSkeletonTimeoutMS int `yaml:"audio_skeleton_timeout_ms"`

	// Stricter audio gating: save requires an observed playback-ready
	// signal, not just a pattern-valid URL.
	RequirePreviewConfirmation bool `yaml:"require_preview_confirmation"`

	WorkOutputWidth   int `yaml:"work_output_width"`
	WorkOutputHeight  int `yaml:"work_output_height"`
	AvatarSize        int `yaml:"avatar_size"`
	AvatarThumbSize   int `yaml:"avatar_thumb_size"`
	BannerWidth       int `yaml:"banner_width"`
	BannerHeight      int `yaml:"banner_height"`
	BannerThumbWidth  int `yaml:"banner_thumb_width"`
	BannerThumbHeight int `yaml:"banner_thumb_height"`

	DraftTTLMinutes int `yaml:"draft_ttl_minutes"`
}

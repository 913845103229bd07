// Package mediaurl classifies pasted media URLs into provider+kind
// and builds provider embed URLs. Validation is pure pattern
// matching: it never performs network requests and cannot guarantee
// the referenced media exists. Existence is only probabilistically
// inferred later by the preview-loading heuristics.
package mediaurl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"artlink_backend/internal/models"
)

// Result is the outcome of classifying one pasted URL.
type Result struct {
	Valid  bool               `json:"is_valid"`
	Source models.MediaSource `json:"media_source,omitempty"`
	Error  string             `json:"error,omitempty"`
}

var (
	youtubeWatchRe  = regexp.MustCompile(`^(?:www\.|m\.)?youtube\.com$`)
	youtubeIDRe     = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	vimeoPathRe     = regexp.MustCompile(`^/(\d+)(?:/.*)?$`)
	muxPlaybackRe   = regexp.MustCompile(`^/([A-Za-z0-9]{10,})(?:\.m3u8)?$`)
	spotifyPathRe   = regexp.MustCompile(`^/(?:intl-[a-z]{2}/)?(track|album|playlist)/([A-Za-z0-9]+)`)
	soundcloudRe    = regexp.MustCompile(`^/([\w-]+)/([\w-]+)/?$`)
	playableExtHint = []string{".mp4", ".webm", ".mov", ".m3u8", ".ogv"}
)

// ValidateVideoURL classifies raw as youtube, vimeo, mux, or a
// generic playable URL (other_url); anything else is rejected with a
// human-readable reason.
func ValidateVideoURL(raw string) Result {
	u, res := parse(raw)
	if !res.Valid {
		return res
	}

	host := strings.ToLower(u.Hostname())

	switch {
	case youtubeWatchRe.MatchString(host):
		if id := youtubeVideoID(u); id != "" {
			return ok(models.MediaSourceYouTube)
		}
		return reject("That YouTube link has no video ID. Paste a watch or share link.")

	case host == "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		if youtubeIDRe.MatchString(id) {
			return ok(models.MediaSourceYouTube)
		}
		return reject("That YouTube share link has no video ID.")

	case host == "vimeo.com" || host == "www.vimeo.com" || host == "player.vimeo.com":
		path := strings.TrimPrefix(u.Path, "/video")
		if vimeoPathRe.MatchString(path) {
			return ok(models.MediaSourceVimeo)
		}
		return reject("Vimeo links must point at a numeric video ID.")

	case host == "stream.mux.com":
		if muxPlaybackRe.MatchString(u.Path) {
			return ok(models.MediaSourceMux)
		}
		return reject("Mux links must contain a playback ID.")
	}

	// Fall back to a generic playable URL when the path looks like a
	// video resource.
	lower := strings.ToLower(u.Path)
	for _, ext := range playableExtHint {
		if strings.HasSuffix(lower, ext) {
			return ok(models.MediaSourceOtherURL)
		}
	}

	return reject("We support YouTube, Vimeo, Mux and direct video file links.")
}

// ValidateAudioURL classifies raw as spotify or soundcloud; anything
// else is rejected.
func ValidateAudioURL(raw string) Result {
	u, res := parse(raw)
	if !res.Valid {
		return res
	}

	host := strings.ToLower(u.Hostname())

	switch {
	case host == "open.spotify.com":
		if spotifyPathRe.MatchString(u.Path) {
			return ok(models.MediaSourceSpotify)
		}
		return reject("Spotify links must point at a track, album or playlist.")

	case host == "soundcloud.com" || host == "www.soundcloud.com" || host == "on.soundcloud.com":
		if host == "on.soundcloud.com" || soundcloudRe.MatchString(u.Path) {
			return ok(models.MediaSourceSoundCloud)
		}
		return reject("SoundCloud links must point at an artist's track.")
	}

	return reject("We support Spotify and SoundCloud links.")
}

// VideoEmbedURL builds the provider embed URL for a validated video
// source URL.
func VideoEmbedURL(source models.MediaSource, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse video url: %w", err)
	}

	switch source {
	case models.MediaSourceYouTube:
		id := youtubeVideoID(u)
		if id == "" {
			id = strings.TrimPrefix(u.Path, "/")
		}
		return "https://www.youtube-nocookie.com/embed/" + id, nil

	case models.MediaSourceVimeo:
		path := strings.TrimPrefix(u.Path, "/video")
		m := vimeoPathRe.FindStringSubmatch(path)
		if m == nil {
			return "", fmt.Errorf("no vimeo video id in %q", raw)
		}
		return "https://player.vimeo.com/video/" + m[1], nil

	case models.MediaSourceMux:
		m := muxPlaybackRe.FindStringSubmatch(u.Path)
		if m == nil {
			return "", fmt.Errorf("no mux playback id in %q", raw)
		}
		return "https://stream.mux.com/" + m[1] + ".m3u8", nil

	case models.MediaSourceOtherURL:
		// Direct file URLs play as-is.
		return raw, nil
	}

	return "", fmt.Errorf("unsupported video source %q", source)
}

// AudioEmbedURL builds the sandboxed iframe URL by substituting the
// track URL into the provider's fixed embed template.
func AudioEmbedURL(source models.MediaSource, raw string) (string, error) {
	switch source {
	case models.MediaSourceSpotify:
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("parse spotify url: %w", err)
		}
		m := spotifyPathRe.FindStringSubmatch(u.Path)
		if m == nil {
			return "", fmt.Errorf("no spotify id in %q", raw)
		}
		return fmt.Sprintf("https://open.spotify.com/embed/%s/%s", m[1], m[2]), nil

	case models.MediaSourceSoundCloud:
		return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(raw), nil
	}

	return "", fmt.Errorf("unsupported audio source %q", source)
}

// Normalize trims whitespace and defaults the scheme so stored URLs
// compare stably.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw
}

func parse(raw string) (*url.URL, Result) {
	raw = Normalize(raw)
	if raw == "" {
		return nil, reject("Paste a link first.")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, reject("That doesn't look like a valid link.")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, reject("Only http(s) links are supported.")
	}
	return u, Result{Valid: true}
}

func youtubeVideoID(u *url.URL) string {
	if id := u.Query().Get("v"); youtubeIDRe.MatchString(id) {
		return id
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if strings.HasPrefix(u.Path, prefix) {
			id := strings.TrimPrefix(u.Path, prefix)
			id = strings.SplitN(id, "/", 2)[0]
			if youtubeIDRe.MatchString(id) {
				return id
			}
		}
	}
	return ""
}

func ok(source models.MediaSource) Result {
	return Result{Valid: true, Source: source}
}

func reject(reason string) Result {
	return Result{Valid: false, Error: reason}
}

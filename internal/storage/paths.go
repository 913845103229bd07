package storage

import (
	"fmt"
	"time"
)

// Storage path categories. Paths follow the convention
// {category}/{ownerId}/{timestamp}-{kind}.jpg, which avoids
// collisions and lets thumbnail paths be derived from full-image
// paths deterministically.
const (
	CategoryAvatars  = "avatars"
	CategoryBanners  = "banners"
	CategoryArtworks = "artworks"
)

// ObjectPath builds the destination path for an upload.
func ObjectPath(category, ownerID, kind string, ts time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s.jpg", category, ownerID, ts.UnixMilli(), kind)
}

// ThumbPath derives the thumbnail-variant path for a full-image kind.
func ThumbPath(category, ownerID, kind string, ts time.Time) string {
	return ObjectPath(category, ownerID, kind+"-thumb", ts)
}

// DedupPaths drops duplicates while preserving order, so a Work whose
// src and thumb point at the same object issues a single remove.
func DedupPaths(paths ...string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

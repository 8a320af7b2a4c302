package storage

import (
	"path/filepath"
	"strings"
)

// allowedTypes is the fixed media allow-list. Anything else is rejected
// before it reaches the core.
var allowedTypes = map[string]bool{
	"mp4": true,
	"mov": true,
	"mkv": true,
	"wav": true,
	"mp3": true,
	"m4a": true,
}

var videoTypes = map[string]bool{
	"mp4": true,
	"mov": true,
	"mkv": true,
}

// MediaType extracts the lowercase extension of a filename, without the dot.
func MediaType(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Allowed reports whether the media type is on the upload allow-list.
func Allowed(mediaType string) bool {
	return allowedTypes[mediaType]
}

// IsVideo reports whether the media type is a video container.
func IsVideo(mediaType string) bool {
	return videoTypes[mediaType]
}

// ContentType maps a media type to the MIME type served to the player.
// Browsers will not play matroska natively, so mkv is served as video/mp4;
// all audio goes out as audio/mpeg. Unknown types fall back to video/mp4.
func ContentType(mediaType string) string {
	switch {
	case mediaType == "mkv":
		return "video/mp4"
	case videoTypes[mediaType]:
		return "video/" + mediaType
	case allowedTypes[mediaType]:
		return "audio/mpeg"
	}
	return "video/mp4"
}

// SanitizeFilename strips path components and replaces characters that are
// unsafe in a storage key, keeping the extension intact.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "media"
	}
	return out
}

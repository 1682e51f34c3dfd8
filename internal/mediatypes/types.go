package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file by extension.
type Kind uint8

const (
	// Other is anything off the allow-lists; the scanner ignores it.
	Other Kind = iota
	// Image files are indexed and probed for dimensions and EXIF dates.
	Image
	// Video files are indexed but never probed.
	Video
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "other"
	}
}

var kinds = map[string]Kind{
	".jpg":  Image,
	".jpeg": Image,
	".png":  Image,
	".heic": Image,
	".webp": Image,
	".gif":  Image,
	".bmp":  Image,

	".mp4":  Video,
	".mov":  Video,
	".avi":  Video,
	".webm": Video,
	".mkv":  Video,
}

// Ext returns the lowercase extension of path including the leading dot,
// or "" when there is none.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// KindOf returns the Kind for path's extension.
func KindOf(path string) Kind {
	return kinds[Ext(path)]
}

// IsMediaFile reports whether path has an extension on either allow-list.
func IsMediaFile(path string) bool {
	return KindOf(path) != Other
}

// IsImage reports whether path has a still-image extension.
func IsImage(path string) bool {
	return KindOf(path) == Image
}

// IsVideo reports whether path has a video extension.
func IsVideo(path string) bool {
	return KindOf(path) == Video
}

package media

import (
	"regexp"
	"strings"
)

const driveHost = "drive.google.com"

// youtubePattern is not anchored on scheme; share links pasted without https:// must match.
var youtubePattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?v=|embed/)|youtu\.be/)[^\s/?&#]+`)

// Kind identifies a project media list.
type Kind string

const (
	KindImages    Kind = "images"
	KindVideos    Kind = "videos"
	KindDocuments Kind = "documents"
)

// Kinds lists every media kind in column order.
var Kinds = []Kind{KindImages, KindVideos, KindDocuments}

// IsDriveLink reports whether the link points at Google Drive. Images and documents must be Drive hosted.
func IsDriveLink(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	return strings.Contains(url, driveHost)
}

// IsYouTubeLink reports whether the link is a YouTube watch, embed or short link.
func IsYouTubeLink(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	return youtubePattern.MatchString(url)
}

// Accepts applies the kind's link predicate.
func (k Kind) Accepts(url string) bool {
	switch k {
	case KindVideos:
		return IsYouTubeLink(url)
	case KindImages, KindDocuments:
		return IsDriveLink(url)
	default:
		return false
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindImages, KindVideos, KindDocuments:
		return true
	default:
		return false
	}
}

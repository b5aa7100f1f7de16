// Package embed turns pasted YouTube links and Google Maps iframes into the
// URLs the storefront embeds.
package embed

import (
	"regexp"
	"strings"
)

const youtubeEmbedBase = "https://www.youtube.com/embed/"

var (
	youtubePattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)
	srcPattern     = regexp.MustCompile(`src="([^"]+)"`)
)

// YouTube returns the canonical embed URL for a YouTube link. Input that does
// not carry an 11 character video id is returned as-is, with https:// added
// when it has no scheme.
func YouTube(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if m := youtubePattern.FindStringSubmatch(s); m != nil && len(m[2]) == 11 {
		return youtubeEmbedBase + m[2]
	}

	if !strings.HasPrefix(s, "http") {
		return "https://" + s
	}
	return s
}

// MapSrc extracts the src attribute from a pasted <iframe> tag. Anything else
// is returned unchanged, so applying it twice is a no-op.
func MapSrc(raw string) string {
	if !strings.Contains(raw, "<iframe") {
		return raw
	}
	if m := srcPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

package utils

import (
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var recognizedHosts = []string{"youtube.com", "youtu.be"}

// IsSupportedURL reports whether the input mentions one of the recognized hosts.
// It is a substring check, not a URL parse.
func IsSupportedURL(input string) bool {
	for _, host := range recognizedHosts {
		if strings.Contains(input, host) {
			return true
		}
	}
	return false
}

// VideoID returns the 11-character video id or "" when the input carries none
// (playlist links, channel pages).
func VideoID(input string) string {
	id, err := youtube.ExtractVideoID(input)
	if err != nil {
		return ""
	}
	return id
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

func SanitizeFilename(name string) string {
	clean := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(name, ""))
	return strings.Trim(clean, ".")
}

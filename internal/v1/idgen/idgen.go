// Package idgen mints short hex identifiers for rooms, users, and videos, and
// extracts external video references from submitted URLs — YouTube refs via
// regex per the original implementation's utils.py, and bare direct-file
// links (mp4/webm/ogg/mov/mkv/avi) as the supplemental provider described in
// SPEC_FULL.md §4.1.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/tossemideia/synctube/internal/v1/model"
)

// generateHex returns n random hex characters (n must be even).
func generateHex(n int) string {
	buf := make([]byte, n/2)
	if _, err := rand.Read(buf); err != nil {
		panic("idgen: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// GenerateRoomID returns a fresh 8 hex character room id.
func GenerateRoomID() model.RoomID {
	return model.RoomID(generateHex(8))
}

// GenerateUserID returns a fresh 12 hex character user id.
func GenerateUserID() model.UserID {
	return model.UserID(generateHex(12))
}

// GenerateVideoID returns a fresh 10 hex character video id.
func GenerateVideoID() model.VideoID {
	return model.VideoID(generateHex(10))
}

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com\/watch\?v=|youtube\.com\/embed\/|youtube\.com\/v\/|youtu\.be\/|youtube\.com\/shorts\/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// ExtractYouTubeID pulls an 11-character YouTube video id out of a URL or a
// bare id string. Returns ok=false if no pattern matches.
func ExtractYouTubeID(raw string) (ref string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}

var directVideoExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
}

// DetectDirectVideoURL reports whether raw looks like a direct link to a
// video file, based on its path extension (optionally followed by a query
// string), and returns the cleaned absolute URL.
func DetectDirectVideoURL(raw string) (sourceURL string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !directVideoExtensions[ext] {
		return "", false
	}
	return raw, true
}

// LastPathSegment returns the trailing path component of a URL, used as a
// fallback title for direct-provider videos when no metadata oracle applies.
func LastPathSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return raw
	}
	last := segments[len(segments)-1]
	if last == "" {
		return raw
	}
	return last
}

package common

import (
	"net/url"
	"regexp"
	"strings"
)

// notePathPattern matches the note ID segment of an explore or discovery URL.
// Note IDs are hex-like tokens; the pattern is kept permissive so future ID
// formats do not break extraction.
var noteIDPattern = regexp.MustCompile(`^[0-9a-zA-Z]{8,64}$`)

// IsNoteURL reports whether the URL points at the target site. Short share
// links (xhslink.com) resolve to note pages after redirect, so they count.
func IsNoteURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "www.xiaohongshu.com" ||
		host == "xiaohongshu.com" ||
		strings.HasSuffix(host, ".xiaohongshu.com") ||
		host == "xhslink.com"
}

// NoteIDFromURL extracts the note ID from a note page URL.
// Supported shapes:
//
//	https://www.xiaohongshu.com/explore/<id>
//	https://www.xiaohongshu.com/discovery/item/<id>
//
// Returns "" when no ID can be derived (short links, profile pages).
func NoteIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := []string{}
	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	for i, seg := range segments {
		if i+1 >= len(segments) {
			break
		}
		candidate := segments[i+1]
		if (seg == "explore" || seg == "item") && noteIDPattern.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

package extractor

import (
	"net/url"
	"strings"
)

// suspiciousSubstrings catches malformed extraction artifacts — stray
// quoting or literal JS identifiers that leaked into an href/src value.
var suspiciousSubstrings = []string{
	"''", "'';", "%22%22", ";", "autoStopperFrame.src;", "autoStopperSrc;", "'",
}

// allowedExtensions is the fixed set of file extensions the saver and
// extractor both recognize as legitimate mirror targets.
var allowedExtensions = map[string]struct{}{
	"html": {}, "htm": {}, "css": {}, "js": {}, "png": {}, "jpg": {}, "jpeg": {},
	"svg": {}, "gif": {}, "webp": {}, "pdf": {}, "ico": {}, "json": {}, "xml": {},
	"txt": {}, "woff": {}, "woff2": {}, "ttf": {}, "eot": {}, "otf": {},
	"mp4": {}, "webm": {}, "ogg": {}, "mp3": {}, "wav": {},
}

func isValidPathChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '/' || r == '.' || r == '%':
		return true
	}
	return false
}

// ValidateResourcePath applies the resource validator of spec §4.4 to a
// canonical URL's path.
func ValidateResourcePath(canonicalURL string) bool {
	parsed, err := url.Parse(canonicalURL)
	if err != nil {
		return false
	}
	path := parsed.Path
	if path == "" {
		return false
	}

	for _, s := range suspiciousSubstrings {
		if strings.Contains(path, s) {
			return false
		}
	}

	for _, r := range path {
		if !isValidPathChar(r) {
			return false
		}
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ".") && seg != ".well-known" {
			return false
		}
	}

	last := segments[len(segments)-1]
	if strings.Contains(last, ".") {
		ext := strings.ToLower(last[strings.LastIndex(last, ".")+1:])
		if _, ok := allowedExtensions[ext]; !ok {
			return false
		}
	}

	return true
}

// Package urlutil implements the canonical-URL and scope/recursion
// heuristics shared by the extractor, engine, saver, and rewriter.
package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// Canonicalize parses u and returns its canonical form: fragment dropped,
// repeated path slashes collapsed, trailing slash stripped except on root,
// query parameters sorted by key. Canonicalize is idempotent.
func Canonicalize(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	canonicalizeInPlace(parsed)
	return parsed.String(), true
}

func canonicalizeInPlace(u *url.URL) {
	u.Fragment = ""
	u.RawFragment = ""

	u.Path = collapseSlashes(u.Path)
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sorted := url.Values{}
		for _, k := range keys {
			sorted[k] = q[k]
		}
		u.RawQuery = sorted.Encode()
	}
}

func collapseSlashes(path string) string {
	if !strings.Contains(path, "//") {
		return path
	}
	var b strings.Builder
	prevSlash := false
	for _, r := range path {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// disallowedSchemes are href/src values never treated as navigable resources.
var disallowedSchemes = []string{"javascript:", "data:", "mailto:", "tel:", "ftp:"}

// Resolve resolves href against base and returns its canonical form, or
// ("", false) when href is empty, fragment-only, uses a disallowed scheme,
// contains template placeholders ("{{" or "}}"), or fails to parse/resolve.
func Resolve(base *url.URL, href string) (string, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return "", false
	}
	if strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	if strings.Contains(trimmed, "{{") || strings.Contains(trimmed, "}}") {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	for _, scheme := range disallowedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	ref, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	if base == nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	canonicalizeInPlace(resolved)
	return resolved.String(), true
}

// IsEventHandler reports whether v looks like an inline script reference
// rather than a navigable URL.
func IsEventHandler(v string) bool {
	lower := strings.ToLower(strings.TrimSpace(v))
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
		return true
	}
	if strings.Contains(v, ":") && strings.Contains(v, ";") {
		return true
	}
	if strings.ContainsRune(v, '(') && strings.ContainsRune(v, ')') {
		return true
	}
	return false
}

const maxSegmentLenForTrap = 50
const minConsecutiveShortSegments = 5

// IsRecursive reports whether u exhibits one of the trap-URL patterns:
// 3+ consecutive slashes, URL-encoded "%2f%2f", 4+ consecutive "../"
// segments, 5+ consecutive short (<=50 char) path segments, 3 identical
// consecutive segments, or any segment repeated more than twice overall.
func IsRecursive(u string) bool {
	if strings.Contains(u, "///") {
		return true
	}
	if strings.Contains(strings.ToLower(u), "%2f%2f") {
		return true
	}
	if strings.Count(u, "../") >= 4 {
		dotdotRun := 0
		maxRun := 0
		for i := 0; i+3 <= len(u); i++ {
			if u[i:i+3] == "../" {
				dotdotRun++
				if dotdotRun > maxRun {
					maxRun = dotdotRun
				}
				i += 2
			} else {
				dotdotRun = 0
			}
		}
		if maxRun >= 4 {
			return true
		}
	}

	parsed, err := url.Parse(u)
	path := u
	if err == nil {
		path = parsed.Path
	}
	segments := splitSegments(path)
	if len(segments) == 0 {
		return false
	}

	shortRun := 0
	maxShortRun := 0
	identicalRun := 1
	maxIdenticalRun := 1
	counts := make(map[string]int, len(segments))
	for i, seg := range segments {
		counts[seg]++

		if len(seg) <= maxSegmentLenForTrap {
			shortRun++
			if shortRun > maxShortRun {
				maxShortRun = shortRun
			}
		} else {
			shortRun = 0
		}

		if i > 0 && seg == segments[i-1] {
			identicalRun++
			if identicalRun > maxIdenticalRun {
				maxIdenticalRun = identicalRun
			}
		} else {
			identicalRun = 1
		}
	}
	if maxShortRun >= minConsecutiveShortSegments {
		return true
	}
	if maxIdenticalRun >= 3 {
		return true
	}
	for _, c := range counts {
		if c > 2 {
			return true
		}
	}
	return false
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// IsScope reports whether u's host is permitted under allowedDomains.
// An empty allowedDomains means unrestricted. A pattern beginning with
// "*." matches the bare suffix or any subdomain of it.
func IsScope(u string, allowedDomains []string) bool {
	if len(allowedDomains) == 0 {
		return true
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, pattern := range allowedDomains {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "*.") {
			suffix := strings.TrimPrefix(pattern, "*.")
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

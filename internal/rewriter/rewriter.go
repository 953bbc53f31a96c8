// Package rewriter rewrites href/src attributes in saved HTML bodies to
// relative paths under the mirror root, per spec §4.8.
package rewriter

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/cametumbling/siteclone/internal/urlutil"
)

var (
	// Go's regexp package, like the original Rust implementation, has no
	// backreferences, so quote styles are matched with separate patterns.
	hrefDouble = regexp.MustCompile(`href="([^"]*)"`)
	hrefSingle = regexp.MustCompile(`href='([^']*)'`)
	srcDouble  = regexp.MustCompile(`src="([^"]*)"`)
	srcSingle  = regexp.MustCompile(`src='([^']*)'`)
)

var disallowedSchemes = []string{"javascript:", "mailto:", "data:", "tel:", "ftp:"}

// Rewrite substitutes every href/src value in body that resolves to a key
// in urlToPath with the relative path from currentURL's own mapped
// location to that key's target. Values that don't resolve to a mapping,
// or that aren't navigable (fragments, non-HTTP schemes, cross-host
// absolute URLs), are left untouched. If currentURL itself has no mapping
// (under any of its variant forms), body is returned unchanged.
func Rewrite(currentURL, body string, urlToPath map[string]string) string {
	fromPath, ok := lookupWithVariants(currentURL, urlToPath)
	if !ok {
		return body
	}

	base, err := url.Parse(currentURL)
	if err != nil {
		return body
	}

	result := body
	result = rewriteAttr(result, hrefDouble, "href", `"`, base, fromPath, urlToPath)
	result = rewriteAttr(result, hrefSingle, "href", `'`, base, fromPath, urlToPath)
	result = rewriteAttr(result, srcDouble, "src", `"`, base, fromPath, urlToPath)
	result = rewriteAttr(result, srcSingle, "src", `'`, base, fromPath, urlToPath)
	return result
}

func lookupWithVariants(currentURL string, urlToPath map[string]string) (string, bool) {
	if c, ok := urlutil.Canonicalize(currentURL); ok {
		if p, ok := urlToPath[c]; ok {
			return p, true
		}
	}
	trimmed := strings.TrimSuffix(currentURL, "/")
	variants := []string{currentURL, trimmed, trimmed + "/"}
	for _, v := range variants {
		if c, ok := urlutil.Canonicalize(v); ok {
			if p, ok := urlToPath[c]; ok {
				return p, true
			}
		}
	}
	return "", false
}

func rewriteAttr(body string, pattern *regexp.Regexp, attrName, quote string, base *url.URL, fromPath string, urlToPath map[string]string) string {
	return pattern.ReplaceAllStringFunc(body, func(match string) string {
		sub := pattern.FindStringSubmatch(match)
		if len(sub) != 2 {
			return match
		}
		value := sub[1]
		if !shouldRewrite(value, base) {
			return match
		}

		resolved, ok := urlutil.Resolve(base, value)
		if !ok {
			return match
		}
		toPath, ok := urlToPath[resolved]
		if !ok {
			return match
		}

		rel := RelativePath(fromPath, toPath)
		return attrName + "=" + quote + rel + quote
	})
}

func shouldRewrite(value string, base *url.URL) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, scheme := range disallowedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return false
		}
		return base != nil && strings.EqualFold(parsed.Host, base.Host)
	}
	return true
}

// RelativePath computes the relative slash-path from the directory
// containing "from" to "to", per spec §4.8's common-prefix walk.
func RelativePath(from, to string) string {
	fromDir := parentOf(from)
	fromParts := splitNonEmpty(fromDir)
	toParts := splitNonEmpty(to)

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var parts []string
	for i := 0; i < len(fromParts)-common; i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)

	if len(parts) == 0 {
		if name := lastOf(toParts); name != "" {
			return name
		}
		return "index.html"
	}
	return strings.Join(parts, "/")
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func splitNonEmpty(path string) []string {
	if path == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func lastOf(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Package blacklist tests URLs against exact, domain-suffix, and regex
// deny-lists, backed by a process-wide compiled-regex cache.
package blacklist

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// regexCache is a process-wide cache of compiled patterns keyed by their
// source string, guarded by a mutex. A failed compile is recorded as a nil
// entry so the source is only attempted once.
var regexCache = struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}{cache: make(map[string]*regexp.Regexp)}

func compileCached(pattern string) *regexp.Regexp {
	regexCache.mu.Lock()
	defer regexCache.mu.Unlock()

	if re, ok := regexCache.cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		regexCache.cache[pattern] = nil
		return nil
	}
	regexCache.cache[pattern] = re
	return re
}

// InvalidPatternFunc is called once per invalid regex pattern encountered
// by New, so callers can log a warning without this package taking a
// logging dependency.
type InvalidPatternFunc func(pattern string)

// Blacklist holds the three parallel deny-list forms described in spec §4.2.
type Blacklist struct {
	exact    map[string]struct{}
	suffixes []string
	patterns []*regexp.Regexp
}

// New builds a Blacklist from raw config values. Invalid regex patterns are
// skipped (they never match) and reported once via onInvalid, if non-nil.
func New(urls, domains, patterns []string, onInvalid InvalidPatternFunc) *Blacklist {
	b := &Blacklist{
		exact:    make(map[string]struct{}, len(urls)),
		suffixes: make([]string, 0, len(domains)),
	}
	for _, u := range urls {
		b.exact[u] = struct{}{}
	}
	for _, d := range domains {
		b.suffixes = append(b.suffixes, strings.ToLower(strings.TrimSpace(d)))
	}
	for _, p := range patterns {
		re := compileCached(p)
		if re == nil {
			if onInvalid != nil {
				onInvalid(p)
			}
			continue
		}
		b.patterns = append(b.patterns, re)
	}
	return b
}

// IsBlacklisted reports whether u matches any exact URL, any domain suffix
// of its host, or any compiled regex pattern.
func (b *Blacklist) IsBlacklisted(u string) bool {
	if _, ok := b.exact[u]; ok {
		return true
	}

	if host := hostOf(u); host != "" {
		for _, suffix := range b.suffixes {
			if suffix == "" {
				continue
			}
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
		}
	}

	for _, re := range b.patterns {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

func hostOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

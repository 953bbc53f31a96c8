// Package extractor implements the HTML/CSS resource extraction pipeline:
// element/attribute link extraction, CSS url()/@import mining, admission
// filtering, and deduplication.
package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cametumbling/siteclone/internal/blacklist"
	"github.com/cametumbling/siteclone/internal/urlutil"
)

// Link is an admitted, canonicalized resource reference with the depth it
// should be enqueued at.
type Link struct {
	URL   string
	Depth int
}

type selectorAttr struct {
	selector string
	attr     string
}

// elementTable lists every (selector, attribute) pair the extractor walks,
// per spec §4.4 step 1.
var elementTable = []selectorAttr{
	{"a[href]", "href"},
	{"img[src]", "src"},
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"iframe[src]", "src"},
	{"frame[src]", "src"},
	{"embed[src]", "src"},
	{"object[data]", "data"},
	{"audio[src]", "src"},
	{"video[src]", "src"},
	{"source[src]", "src"},
}

var srcsetSelectors = []string{"img[srcset]", "source[srcset]"}

// cssURLPattern matches url(...) with optional quoting and whitespace.
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// cssImportPattern matches @import "..."; (the non-url() import form).
var cssImportPattern = regexp.MustCompile(`@import\s+["']([^"']+)["']`)

// Extract walks htmlBody's DOM and embedded CSS, returning a deduplicated,
// ordered sequence of admitted (url, depth) pairs. pageURL is the
// resolution base unless the document carries a <base href> element.
func Extract(htmlBody, pageURL string, childDepth int, bl *blacklist.Blacklist) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolvedBase, err := base.Parse(href); err == nil {
			base = resolvedBase
		}
	}

	seen := make(map[string]struct{})
	var links []Link
	admit := func(raw string) {
		candidate, ok := urlutil.Resolve(base, raw)
		if !ok {
			return
		}
		if urlutil.IsEventHandler(raw) {
			return
		}
		if bl != nil && bl.IsBlacklisted(candidate) {
			return
		}
		if !ValidateResourcePath(candidate) {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		links = append(links, Link{URL: candidate, Depth: childDepth})
	}

	for _, se := range elementTable {
		doc.Find(se.selector).Each(func(_ int, sel *goquery.Selection) {
			if v, ok := sel.Attr(se.attr); ok {
				admit(v)
			}
		})
	}

	for _, selector := range srcsetSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			v, ok := sel.Attr("srcset")
			if !ok {
				return
			}
			for _, part := range strings.Split(v, ",") {
				fields := strings.Fields(strings.TrimSpace(part))
				if len(fields) > 0 {
					admit(fields[0])
				}
			}
		})
	}

	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		for _, u := range extractCSSURLs(sel.Text()) {
			admit(u)
		}
	})
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		if v, ok := sel.Attr("style"); ok {
			for _, u := range extractCSSURLs(v) {
				admit(u)
			}
		}
	})

	return links
}

// extractCSSURLs mines url(...) references and bare @import strings out of
// a CSS fragment. A malformed fragment simply yields no matches.
func extractCSSURLs(css string) []string {
	var urls []string
	for _, m := range cssURLPattern.FindAllStringSubmatch(css, -1) {
		urls = append(urls, strings.TrimSpace(m[1]))
	}
	for _, m := range cssImportPattern.FindAllStringSubmatch(css, -1) {
		urls = append(urls, strings.TrimSpace(m[1]))
	}
	return urls
}

// Title returns the trimmed text of the document's <title> element, or ""
// if absent.
func Title(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

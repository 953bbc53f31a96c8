// Package engine implements the bounded worker-pool crawl engine: spec
// §4.5's frontier, atomic visited set, depth/scope/recursion filters, and
// idle-cycle watchdog.
package engine

import "context"

// FetchResult is the subset of an HTTP response the engine needs. It is a
// narrower view than the fetch package's own type, so the engine has no
// dependency on any particular HTTP client implementation.
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
	FinalURL    string
}

// Fetcher retrieves a single URL. Implementations own their own retry and
// rate-limiting behavior; the engine treats Fetch as an opaque suspension
// point.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// ChildLink is a candidate URL discovered on a page, already resolved,
// canonicalized, and admitted by the extractor's own rules (blacklist,
// event-handler, resource validator). The engine still applies its own
// depth/length/recursion/scope/visited filters before enqueueing it.
type ChildLink struct {
	URL string
}

// Extractor pulls links and a title out of an HTML body.
type Extractor interface {
	Extract(body, pageURL string) []ChildLink
	Title(body string) string
}

// PageRecord is the unit the engine emits on its output channel, matching
// spec §3's page record. Err is non-nil for a fetch failure or a recovered
// worker panic; all other fields besides URL and Depth are then zero.
type PageRecord struct {
	URL           string
	StatusCode    int
	ContentType   string
	ContentLength *int64
	Title         string
	Links         []string
	Body          []byte
	Depth         int
	Err           error
}

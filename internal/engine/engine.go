package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cametumbling/siteclone/internal/urlutil"
)

const (
	// MaxURLLength is the resource-limit bound of spec §5.
	MaxURLLength = 500

	defaultWatchdogPollInterval = 50 * time.Millisecond
	defaultWatchdogIdleCycles   = 200
)

// Config configures an Engine.
type Config struct {
	Workers        int
	MaxDepth       int
	MaxPages       int // 0 = unlimited, spec §9 optional enhancement
	AllowedDomains []string

	// WatchdogPollInterval and WatchdogIdleCycles tune the liveness
	// watchdog of spec §4.5; both have sane defaults when zero.
	WatchdogPollInterval time.Duration
	WatchdogIdleCycles   int

	Logger zerolog.Logger
}

type frontierItem struct {
	url   string
	depth int
}

// Engine is a bounded worker pool draining a shared frontier against an
// atomic visited set, per spec §4.5.
type Engine struct {
	fetcher   Fetcher
	extractor Extractor
	cfg       Config

	visited  *visitedSet
	frontier chan frontierItem

	outstanding   atomic.Int64
	activeWorkers atomic.Int32
	visitCount    atomic.Int64

	watchdogTripped atomic.Bool
}

// New builds an Engine. Workers and the watchdog settings default when
// unset (zero or negative); MaxDepth is used as given.
func New(fetcher Fetcher, extractor Extractor, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.WatchdogPollInterval <= 0 {
		cfg.WatchdogPollInterval = defaultWatchdogPollInterval
	}
	if cfg.WatchdogIdleCycles <= 0 {
		cfg.WatchdogIdleCycles = defaultWatchdogIdleCycles
	}

	bufferSize := cfg.Workers * 100
	if bufferSize < 100 {
		bufferSize = 100
	}

	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		cfg:       cfg,
		visited:   newVisitedSet(),
		frontier:  make(chan frontierItem, bufferSize),
	}
}

// WatchdogTripped reports whether the idle-cycle watchdog forced
// termination rather than the frontier draining naturally.
func (e *Engine) WatchdogTripped() bool {
	return e.watchdogTripped.Load()
}

// Run seeds the frontier with seedURL at depth 0 and drains it with
// cfg.Workers workers, emitting one PageRecord per dispatched URL to out.
// Run closes out before returning. It blocks until the frontier is empty
// and all workers are idle, the watchdog trips, or ctx is cancelled.
func (e *Engine) Run(ctx context.Context, seedURL string, out chan<- PageRecord) error {
	defer close(out)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	seed, ok := urlutil.Canonicalize(seedURL)
	if !ok {
		return invalidSeedError(seedURL)
	}

	var workerWg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			e.worker(runCtx, out)
		}()
	}

	e.visited.TryInsert(seed)
	e.visitCount.Add(1)
	e.outstanding.Add(1)
	select {
	case e.frontier <- frontierItem{url: seed, depth: 0}:
	case <-runCtx.Done():
		e.outstanding.Add(-1)
	}

	err := e.watch(runCtx)
	cancel()
	close(e.frontier)
	workerWg.Wait()
	return err
}

// watch polls the outstanding-work counter until it reaches zero (frontier
// empty, no worker mid-item), or trips the idle-cycle watchdog.
func (e *Engine) watch(ctx context.Context) error {
	idleCycles := 0
	var lastOutstanding int64 = -1

	for {
		outstanding := e.outstanding.Load()
		if outstanding == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.WatchdogPollInterval):
		}

		if e.outstanding.Load() == lastOutstanding && len(e.frontier) == 0 {
			idleCycles++
			if idleCycles >= e.cfg.WatchdogIdleCycles {
				e.watchdogTripped.Store(true)
				e.cfg.Logger.Warn().
					Int64("outstanding", outstanding).
					Int("idle_cycles", idleCycles).
					Msg("crawl watchdog tripped, forcing termination")
				return nil
			}
		} else {
			idleCycles = 0
		}
		lastOutstanding = e.outstanding.Load()
	}
}

func (e *Engine) worker(ctx context.Context, out chan<- PageRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-e.frontier:
			if !ok {
				return
			}
			e.activeWorkers.Add(1)
			e.process(ctx, item, out)
			e.activeWorkers.Add(-1)
			e.outstanding.Add(-1)
		}
	}
}

func (e *Engine) process(ctx context.Context, item frontierItem, out chan<- PageRecord) {
	defer func() {
		if r := recover(); r != nil {
			sendRecord(ctx, out, PageRecord{URL: item.url, Depth: item.depth, Err: panicError(r)})
		}
	}()

	result, err := e.fetcher.Fetch(ctx, item.url)
	if err != nil {
		sendRecord(ctx, out, PageRecord{URL: item.url, Depth: item.depth, Err: err})
		return
	}

	if !isHTML(result.ContentType) {
		sendRecord(ctx, out, PageRecord{
			URL:         item.url,
			StatusCode:  result.StatusCode,
			ContentType: result.ContentType,
			Body:        result.Body,
			Depth:       item.depth,
			Links:       []string{},
		})
		return
	}

	body := string(result.Body)
	title := e.extractor.Title(body)
	children := e.extractor.Extract(body, item.url)

	links := make([]string, 0, len(children))
	for _, child := range children {
		links = append(links, child.URL)
	}

	sendRecord(ctx, out, PageRecord{
		URL:         item.url,
		StatusCode:  result.StatusCode,
		ContentType: result.ContentType,
		Title:       title,
		Links:       links,
		Body:        result.Body,
		Depth:       item.depth,
	})

	childDepth := item.depth + 1
	for _, child := range children {
		e.maybeEnqueue(ctx, child.URL, childDepth)
	}
}

// maybeEnqueue applies the full admission rule set (depth, length,
// recursion, scope, not-already-visited, page cap) before dispatching a
// child URL, per spec §4.5 worker step 2/5.
func (e *Engine) maybeEnqueue(ctx context.Context, childURL string, depth int) {
	if depth > e.cfg.MaxDepth {
		return
	}
	if len(childURL) > MaxURLLength {
		return
	}
	if urlutil.IsRecursive(childURL) {
		return
	}
	if !urlutil.IsScope(childURL, e.cfg.AllowedDomains) {
		return
	}
	if e.cfg.MaxPages > 0 && e.visitCount.Load() >= int64(e.cfg.MaxPages) {
		return
	}
	if !e.visited.TryInsert(childURL) {
		return
	}
	e.visitCount.Add(1)
	e.outstanding.Add(1)

	select {
	case e.frontier <- frontierItem{url: childURL, depth: depth}:
	case <-ctx.Done():
		e.outstanding.Add(-1)
	}
}

func sendRecord(ctx context.Context, out chan<- PageRecord, rec PageRecord) {
	select {
	case out <- rec:
	case <-ctx.Done():
	}
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return ct == "text/html"
}

type panicErr struct{ v any }

func (p panicErr) Error() string { return "worker panic" }

func panicError(v any) error { return panicErr{v: v} }

type seedErr string

func (s seedErr) Error() string { return "invalid seed URL: " + string(s) }

func invalidSeedError(seed string) error { return seedErr(seed) }

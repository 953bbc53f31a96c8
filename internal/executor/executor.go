// Package executor owns the crawl runtime: it wires the engine to the
// fetch collaborator and extractor, drains page records into a
// CrawlResult, and hands each page to the site saver, per spec §4.6.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cametumbling/siteclone/internal/blacklist"
	"github.com/cametumbling/siteclone/internal/engine"
	"github.com/cametumbling/siteclone/internal/extractor"
	"github.com/cametumbling/siteclone/internal/fetch"
	"github.com/cametumbling/siteclone/internal/htmlpreprocess"
	"github.com/cametumbling/siteclone/internal/saver"
)

// PageRecord mirrors engine.PageRecord; re-exported so callers of this
// package don't need to import internal/engine directly.
type PageRecord = engine.PageRecord

// WorkerStats are unused by the engine directly (the engine is a fixed
// pool, not per-worker-identified) but retained on the result per spec §3;
// the single entry "pool" aggregates pool-wide totals since the channel-
// based engine does not expose per-goroutine identity to its caller.
type WorkerStats struct {
	PagesProcessed int
	Errors         int
	LinksFound     int
	ProcessingTime time.Duration
}

// CrawlResult is the outer result of a single crawl invocation, per spec §3.
type CrawlResult struct {
	Pages        []PageRecord
	Errors       []PageError
	WorkerStats  map[string]WorkerStats
	Duration     time.Duration
	WatchdogUsed bool
}

// PageError pairs a URL with the message produced while fetching or saving it.
type PageError struct {
	URL     string
	Message string
}

// extractAdapter binds the preprocessor, extractor and blacklist packages to
// the engine.Extractor interface, keeping the engine free of any dependency
// on concrete HTML/blacklist implementations.
type extractAdapter struct {
	bl *blacklist.Blacklist
}

func (a extractAdapter) Extract(body, pageURL string) []engine.ChildLink {
	links := extractor.Extract(htmlpreprocess.Process(body), pageURL, 0, a.bl)
	out := make([]engine.ChildLink, 0, len(links))
	for _, l := range links {
		out = append(out, engine.ChildLink{URL: l.URL})
	}
	return out
}

func (a extractAdapter) Title(body string) string {
	return extractor.Title(body)
}

// fetchAdapter wraps an executor Fetcher (returning fetch.FetchResult) so it
// satisfies the narrower engine.Fetcher contract; it exists so the executor
// can work with the fetch package's types while the engine stays decoupled.
type fetchAdapter struct {
	fetch Fetcher
}

// Fetcher is the narrow fetch contract the executor requires of its HTTP
// collaborator (spec §4.9). *fetch.Client satisfies this directly.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.FetchResult, error)
}

func (a fetchAdapter) Fetch(ctx context.Context, url string) (*engine.FetchResult, error) {
	res, err := a.fetch.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return &engine.FetchResult{
		Body:        res.Body,
		ContentType: res.ContentType,
		StatusCode:  res.StatusCode,
		FinalURL:    res.FinalURL,
	}, nil
}

// Config configures a Run invocation.
type Config struct {
	SeedURL        string
	Workers        int
	MaxDepth       int
	MaxPages       int
	AllowedDomains []string
	OutputDir      string
	Fetcher        Fetcher
	Blacklist      *blacklist.Blacklist
	Logger         zerolog.Logger
}

// Run drives one complete crawl: it creates the engine, spawns a collector
// that assembles the result, waits for the engine to finish, then invokes
// the saver for every collected page.
func Run(ctx context.Context, cfg Config) (*CrawlResult, error) {
	start := time.Now()

	eng := engine.New(fetchAdapter{fetch: cfg.Fetcher}, extractAdapter{bl: cfg.Blacklist}, engine.Config{
		Workers:        cfg.Workers,
		MaxDepth:       cfg.MaxDepth,
		MaxPages:       cfg.MaxPages,
		AllowedDomains: cfg.AllowedDomains,
		Logger:         cfg.Logger,
	})

	pageCh := make(chan engine.PageRecord)

	result := &CrawlResult{
		WorkerStats: map[string]WorkerStats{"pool": {}},
	}

	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		stats := WorkerStats{}
		for rec := range pageCh {
			stats.PagesProcessed++
			if rec.Err != nil {
				cfg.Logger.Debug().Str("url", rec.URL).Err(rec.Err).Msg("page fetch failed")
				stats.Errors++
				result.Errors = append(result.Errors, PageError{URL: rec.URL, Message: rec.Err.Error()})
				continue
			}
			stats.LinksFound += len(rec.Links)
			result.Pages = append(result.Pages, rec)
		}
		result.WorkerStats["pool"] = stats
	}()

	runErr := eng.Run(ctx, cfg.SeedURL, pageCh)
	collectorWg.Wait()

	result.Duration = time.Since(start)
	result.WatchdogUsed = eng.WatchdogTripped()

	if runErr != nil {
		return result, runErr
	}

	if cfg.OutputDir != "" {
		site := saver.New(cfg.OutputDir)
		for i := range result.Pages {
			p := result.Pages[i]
			page := saver.Page{
				URL:         p.URL,
				ContentType: p.ContentType,
				Body:        p.Body,
				Links:       p.Links,
			}
			if err := site.SavePage(page); err != nil {
				result.Errors = append(result.Errors, PageError{URL: p.URL, Message: err.Error()})
			}
		}
	}

	return result, nil
}

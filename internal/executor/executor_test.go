package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cametumbling/siteclone/internal/blacklist"
	"github.com/cametumbling/siteclone/internal/fetch"
)

type fakeFetcher struct {
	pages map[string]string // url -> html body
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.FetchResult, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, &fetch.HTTPError{StatusCode: 404, URL: url}
	}
	return &fetch.FetchResult{
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte(body),
		FinalURL:    url,
	}, nil
}

func TestRunCollectsPagesAndErrors(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://h/":  `<html><title>Home</title><a href="/a">a</a><a href="/missing">gone</a></html>`,
		"http://h/a": `<html><title>A</title><a href="/">home</a></html>`,
	}}

	result, err := Run(context.Background(), Config{
		SeedURL:        "http://h/",
		Workers:        2,
		MaxDepth:       5,
		AllowedDomains: []string{"h"},
		Fetcher:        f,
		Blacklist:      blacklist.New(nil, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %+v", len(result.Pages), result.Pages)
	}
	if len(result.Errors) != 1 || result.Errors[0].URL != "http://h/missing" {
		t.Errorf("expected one error for the missing page, got %+v", result.Errors)
	}
	stats := result.WorkerStats["pool"]
	if stats.PagesProcessed != 3 {
		t.Errorf("expected 3 processed records (2 pages + 1 error), got %d", stats.PagesProcessed)
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error counted, got %d", stats.Errors)
	}
}

func TestRunSavesAndRewritesWhenOutputDirSet(t *testing.T) {
	dir := t.TempDir()
	f := &fakeFetcher{pages: map[string]string{
		"http://h/":  `<a href="/a">a</a>`,
		"http://h/a": `<a href="/">home</a>`,
	}}

	_, err := Run(context.Background(), Config{
		SeedURL:        "http://h/",
		Workers:        2,
		MaxDepth:       5,
		AllowedDomains: []string{"h"},
		OutputDir:      dir,
		Fetcher:        f,
		Blacklist:      blacklist.New(nil, nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	rootBytes, err := os.ReadFile(filepath.Join(dir, "h", "index.html"))
	if err != nil {
		t.Fatalf("reading saved root: %v", err)
	}
	if string(rootBytes) != `<a href="a/index.html">a</a>` {
		t.Errorf("root content = %q", rootBytes)
	}

	leafBytes, err := os.ReadFile(filepath.Join(dir, "h", "a", "index.html"))
	if err != nil {
		t.Fatalf("reading saved leaf: %v", err)
	}
	if string(leafBytes) != `<a href="../index.html">home</a>` {
		t.Errorf("leaf content = %q", leafBytes)
	}
}

func TestRunRespectsBlacklist(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"http://h/": `<a href="/blocked">b</a>`,
	}}
	bl := blacklist.New([]string{"http://h/blocked"}, nil, nil, nil)

	result, err := Run(context.Background(), Config{
		SeedURL:        "http://h/",
		Workers:        1,
		MaxDepth:       5,
		AllowedDomains: []string{"h"},
		Fetcher:        f,
		Blacklist:      bl,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Pages) != 1 {
		t.Fatalf("expected only the seed page (blocked link never dispatched), got %+v", result.Pages)
	}
}

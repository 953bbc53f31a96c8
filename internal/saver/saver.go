// Package saver implements the site saver of spec §4.7: a two-phase
// URL-to-local-path map that survives streaming, and the bytes writer that
// applies the link rewriter to HTML bodies.
package saver

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cametumbling/siteclone/internal/extractor"
	"github.com/cametumbling/siteclone/internal/rewriter"
	"github.com/cametumbling/siteclone/internal/urlutil"
)

// Page is the subset of a crawled page the saver needs.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	Links       []string
}

// Saver maps every observed URL to a local path under outputDir and writes
// page bodies, rewriting HTML links to relative paths.
type Saver struct {
	outputDir string

	mu        sync.Mutex
	urlToPath map[string]string // canonical URL -> slash-path relative to outputDir
}

// New creates a Saver rooted at outputDir.
func New(outputDir string) *Saver {
	return &Saver{
		outputDir: outputDir,
		urlToPath: make(map[string]string),
	}
}

// MapURL is map(url) from spec §4.7: canonicalize, return the existing
// mapping if present, otherwise validate the path, compute its local
// location, create parent directories, and remember it. The second return
// value is false when the URL cannot be mapped (invalid path, unparseable).
func (s *Saver) MapURL(rawURL string) (string, bool) {
	canonical, ok := urlutil.Canonicalize(rawURL)
	if !ok {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if path, ok := s.urlToPath[canonical]; ok {
		return path, true
	}

	parsed, err := url.Parse(canonical)
	if err != nil {
		return "", false
	}
	if !extractor.ValidateResourcePath(canonical) {
		return "", false
	}

	relPath := localPathFor(parsed.Hostname(), parsed.Path)

	fullPath := filepath.Join(s.outputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", false
	}

	s.urlToPath[canonical] = relPath
	return relPath, true
}

// localPathFor applies the path rules of spec §4.7: root -> index.html,
// trailing slash -> <path>index.html, no dot in the last segment ->
// <path>/index.html, otherwise the path verbatim.
func localPathFor(host, path string) string {
	if path == "" || path == "/" {
		return host + "/index.html"
	}
	trimmed := strings.TrimPrefix(path, "/")
	switch {
	case strings.HasSuffix(trimmed, "/"):
		trimmed += "index.html"
	case !strings.Contains(lastSegment(trimmed), "."):
		trimmed += "/index.html"
	}
	return host + "/" + trimmed
}

func lastSegment(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// SavePage runs the two-phase mapping for page (mapping the page itself,
// then every link it carries if it's HTML) and writes its body, rewriting
// HTML bodies through the link rewriter.
func (s *Saver) SavePage(page Page) error {
	localRelPath, ok := s.MapURL(page.URL)
	if !ok {
		return nil
	}

	isHTML := strings.Contains(strings.ToLower(page.ContentType), "text/html")
	if isHTML {
		for _, link := range page.Links {
			s.MapURL(link)
		}
	}

	fullPath := filepath.Join(s.outputDir, filepath.FromSlash(localRelPath))

	body := page.Body
	if isHTML {
		s.mu.Lock()
		snapshot := make(map[string]string, len(s.urlToPath))
		for k, v := range s.urlToPath {
			snapshot[k] = v
		}
		s.mu.Unlock()
		body = []byte(rewriter.Rewrite(page.URL, string(page.Body), snapshot))
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", page.URL, err)
	}
	if err := os.WriteFile(fullPath, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", fullPath, err)
	}
	return nil
}

// Package report formats a human-readable crawl summary for stdout, per
// spec §4.13: pages visited, errors, worker stats, duration.
package report

import (
	"fmt"
	"io"

	"github.com/cametumbling/siteclone/internal/executor"
)

// Write prints result as plain text to w, in the teacher's
// "=== Crawl Summary ===" style.
func Write(w io.Writer, result *executor.CrawlResult) {
	fmt.Fprintln(w, "=== Crawl Summary ===")
	fmt.Fprintf(w, "Pages visited: %d\n", len(result.Pages))
	fmt.Fprintf(w, "Errors:        %d\n", len(result.Errors))
	fmt.Fprintf(w, "Duration:      %v\n", result.Duration)

	if result.Duration.Seconds() > 0 {
		rate := float64(len(result.Pages)) / result.Duration.Seconds()
		fmt.Fprintf(w, "Rate:          %.2f pages/sec\n", rate)
	}

	if result.WatchdogUsed {
		fmt.Fprintln(w, "Watchdog:      forced termination (crawl did not drain naturally)")
	}

	for name, stats := range result.WorkerStats {
		fmt.Fprintf(w, "\nWorker stats [%s]:\n", name)
		fmt.Fprintf(w, "  Pages processed: %d\n", stats.PagesProcessed)
		fmt.Fprintf(w, "  Errors:          %d\n", stats.Errors)
		fmt.Fprintf(w, "  Links found:     %d\n", stats.LinksFound)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s: %s\n", e.URL, e.Message)
		}
	}
}

// Package logx builds the zerolog.Logger injected into the engine and
// boundary code, per spec §4.12.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the logger returned by New.
type Options struct {
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// Debug enables debug-level output (per-URL fetch errors);
	// otherwise the floor is info.
	Debug bool
	// Pretty renders human-readable console output instead of JSON lines.
	Pretty bool
}

// New builds a zerolog.Logger configured per Options, with a RFC3339
// timestamp and no implicit caller/global state.
func New(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Package logging builds the zerolog logger used across steamvalue and carries
// it through context.Context, so the active verbosity is a value handed to each
// component rather than process-wide state.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config controls logger construction.
type Config struct {
	// Verbosity selects the minimum level that is printed.
	Verbosity Verbosity

	// Out is where log lines go. Defaults to os.Stderr.
	Out io.Writer

	// NoColor disables ANSI colours. When Out is a file that is not a
	// terminal, colours are disabled regardless of this value.
	NoColor bool

	// RunID is attached to every line as run_id. Generated when empty.
	RunID string
}

// New creates a console logger for the given configuration.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	runID := cfg.RunID
	if runID == "" {
		runID = NewRunID()
	}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor || !IsTerminal(out),
		TimeFormat: time.TimeOnly,
	}

	return zerolog.New(writer).
		Level(cfg.Verbosity.ZerologLevel()).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
}

// NewRunID returns a fresh, lexically sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// ComponentLogger returns a child logger tagged with the component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// WithComponent returns ctx carrying a child of its logger tagged with component.
func WithComponent(ctx context.Context, component string) context.Context {
	l := ComponentLogger(*FromContext(ctx), component)
	return l.WithContext(ctx)
}

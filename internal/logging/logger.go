// Package logging defines a minimal structured-logging interface used across
// the project. Implementations wrap slog and zerolog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "sync finished", "run_id", id, "synced", n)
type Logger interface {
	// Debug logs a diagnostic message.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Supported output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatZerolog = "zerolog"
	FormatConsole = "console"
)

// New builds a Logger writing to w in the given format. An empty format
// means text.
func New(format string, w io.Writer, debug bool) (Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	zlevel := zerolog.InfoLevel
	if debug {
		level = slog.LevelDebug
		zlevel = zerolog.DebugLevel
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", FormatText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, opts))), nil
	case FormatJSON:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, opts))), nil
	case FormatZerolog:
		return NewZerologLogger(zerolog.New(w).Level(zlevel).With().Timestamp().Logger()), nil
	case FormatConsole:
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
		return NewZerologLogger(zerolog.New(cw).Level(zlevel).With().Timestamp().Logger()), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

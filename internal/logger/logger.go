// Package logger configures the process-wide slog logger. Every handler is
// wrapped so the scheduler's per-tick run id, when present on the context,
// lands on the log line and correlates it with the dispatch journals.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

func Setup(level string) {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
	})
	slog.SetDefault(slog.New(WithRunIDAttr(handler)))
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunIDAttr wraps a handler so records logged through the *Context slog
// functions carry the run id stored on the context.
func WithRunIDAttr(h slog.Handler) slog.Handler {
	return runIDHandler{h}
}

type runIDHandler struct {
	inner slog.Handler
}

func (h runIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetRunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return runIDHandler{h.inner.WithAttrs(attrs)}
}

func (h runIDHandler) WithGroup(name string) slog.Handler {
	return runIDHandler{h.inner.WithGroup(name)}
}

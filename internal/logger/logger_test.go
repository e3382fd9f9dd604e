package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"WARNING": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestRunIDAttrFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(WithRunIDAttr(slog.NewTextHandler(&buf, nil)))

	ctx := WithRunID(context.Background(), "01HTESTRUN")
	log.InfoContext(ctx, "tick started")

	if !strings.Contains(buf.String(), "run_id=01HTESTRUN") {
		t.Errorf("log line missing run id: %q", buf.String())
	}

	buf.Reset()
	log.Info("no context")
	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("run id attached without a context id: %q", buf.String())
	}
}

func TestGetRunIDMissing(t *testing.T) {
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID on bare context = %q, want empty", got)
	}
}

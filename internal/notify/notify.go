// Package notify announces pipeline events (dispatches, rejections,
// briefings) to chat channels. Announcements are fire-and-forget: a notifier
// failure never blocks or retries the pipeline action it describes.
package notify

import (
	"context"
	"log/slog"
)

type Notifier interface {
	Name() string
	Announce(ctx context.Context, text string) error
}

// Fanout broadcasts to several notifiers, logging failures individually.
type Fanout struct {
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Name() string {
	return "fanout"
}

func (f *Fanout) Announce(ctx context.Context, text string) error {
	for _, n := range f.notifiers {
		if err := n.Announce(ctx, text); err != nil {
			slog.Warn("Notifier failed", "notifier", n.Name(), "error", err)
		}
	}
	return nil
}

package sender

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// DryRun logs dispatches instead of performing them. It is the default
// client: real channel credentials are opt-in, and the whole approval
// pipeline (dedup, rate limit, send log) behaves identically either way.
type DryRun struct {
	mu   sync.Mutex
	sent []Message
}

func NewDryRun() *DryRun {
	return &DryRun{}
}

func (d *DryRun) Name() string {
	return "dry_run"
}

func (d *DryRun) Send(_ context.Context, msg Message) (Result, error) {
	d.mu.Lock()
	d.sent = append(d.sent, msg)
	d.mu.Unlock()

	tracking := fmt.Sprintf("dryrun_%s", ulid.Make())
	slog.Info("DRY RUN: would dispatch",
		"id", msg.ID,
		"channel", msg.Channel,
		"to", msg.To,
		"subject", msg.Subject,
		"tracking_id", tracking,
	)
	return Result{Status: StatusSent, TrackingID: tracking}, nil
}

// Sent returns a copy of everything dispatched so far.
func (d *DryRun) Sent() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, len(d.sent))
	copy(out, d.sent)
	return out
}

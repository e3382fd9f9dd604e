// Package sender abstracts the outbound channels approved actions are
// dispatched on. The engine only ever calls a Client once per action id;
// everything around retries and dedup lives upstream.
package sender

import (
	"context"
)

// Channel names used for rate limiting and send-log attribution.
const (
	ChannelEmail    = "email"
	ChannelLinkedIn = "linkedin"
)

// Status is the terminal outcome of a dispatch attempt.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)

// Message is one approved action ready for dispatch.
type Message struct {
	ID      string
	Channel string
	To      string
	Subject string
	Body    string
}

// Result reports what the channel did with the message.
type Result struct {
	Status     Status
	TrackingID string
	Detail     string
}

// Client dispatches a message on its channel. Implementations report a
// provider-side duplicate as StatusDuplicate rather than an error, so the
// engine can finalize the record as already delivered.
type Client interface {
	Name() string
	Send(ctx context.Context, msg Message) (Result, error)
}

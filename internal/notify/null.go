package notify

import "context"

// Null drops announcements. Used when no chat channel is configured.
type Null struct{}

func (Null) Name() string {
	return "null"
}

func (Null) Announce(context.Context, string) error {
	return nil
}

// Package agent produces plan checklists for records under triage. The
// engine treats planning as best effort: a planner failure leaves the record
// where it is and the next poll retries.
package agent

import (
	"context"

	"github.com/harunnryd/hisho/internal/vault"
)

// Planner drafts a plan checklist for a single record. Implementations
// return the markdown plan body; persisting it is the caller's job.
type Planner interface {
	Name() string
	Plan(ctx context.Context, rec *vault.Record) (string, error)
}

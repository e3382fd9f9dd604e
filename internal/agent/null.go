package agent

import (
	"context"
	"fmt"

	"github.com/harunnryd/hisho/internal/vault"
)

// Null emits a fixed manual-review checklist. Used when no external agent is
// configured; tasks still flow through triage, a human fills in the plan.
type Null struct{}

func (Null) Name() string {
	return "null"
}

func (Null) Plan(_ context.Context, rec *vault.Record) (string, error) {
	subject := rec.Fields.Get("subject")
	if subject == "" {
		subject = rec.ID
	}
	return fmt.Sprintf("# Plan: %s\n\n- [ ] Review task and decide next action\n", subject), nil
}

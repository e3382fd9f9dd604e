// Package engine drives records through the vault's stage lifecycle: triage
// and planning, the approval gate, and terminal housekeeping.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/harunnryd/hisho/internal/agent"
	"github.com/harunnryd/hisho/internal/dedup"
	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/vault"
)

// Transitioner performs the non-gated stage moves: triage ingestion,
// auto-archive of completed plans, and rejected-stage accounting.
//
// events is the ingestion ledger: an id recorded there has been triaged once
// and is never triaged again, however often a producer redelivers it. It is
// a separate namespace from the gate's dispatched-id store; sharing one
// would make the gate treat every ingested record as already sent.
type Transitioner struct {
	vault   *vault.Vault
	planner agent.Planner
	events  *dedup.Store
}

func NewTransitioner(v *vault.Vault, planner agent.Planner, events *dedup.Store) *Transitioner {
	if planner == nil {
		planner = agent.Null{}
	}
	return &Transitioner{vault: v, planner: planner, events: events}
}

// AdvanceStage moves one record between stages. A missing source means
// someone else already moved it and is logged, not escalated; a destination
// conflict is skipped and logged, never overwritten.
func (t *Transitioner) AdvanceStage(id string, from, to vault.Stage) error {
	err := t.vault.Move(id, from, to)
	switch {
	case err == nil:
		slog.Info("Record advanced", "id", id, "from", from, "to", to)
		return nil
	case errors.Is(err, hishoErrors.ErrNotFound):
		slog.Debug("Record already moved", "id", id, "from", from)
		return err
	case errors.Is(err, hishoErrors.ErrConflict):
		slog.Warn("Destination occupied, skipping move", "id", id, "from", from, "to", to)
		return err
	default:
		return err
	}
}

// IngestPending triages every record waiting in NeedsAction: record the id
// in the ingestion ledger, move it to InProgress, then ask the planner for a
// checklist. An id already in the ledger is a producer redelivery and is
// skipped. Planner failures leave the record in InProgress without a plan;
// the next poll retries planning.
func (t *Transitioner) IngestPending(ctx context.Context) error {
	ids, err := t.vault.ListIDs(vault.StageNeedsAction)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.events.Contains(id) {
			slog.WarnContext(ctx, "Redelivered event ignored", "id", id)
			continue
		}
		// Ledger first: a storage failure here halts ingestion outright,
		// because an unrecorded ingestion could repeat after a crash.
		if err := t.events.Record(id); err != nil {
			return err
		}
		if err := t.AdvanceStage(id, vault.StageNeedsAction, vault.StageInProgress); err != nil {
			continue
		}
		t.planRecord(ctx, id)
	}

	// Queued social drafts go straight to the approval stage; there is
	// nothing to plan, a human decides whether they post.
	queued, err := t.vault.ListIDs(vault.StageLinkedInQueue)
	if err != nil {
		return err
	}
	for _, id := range queued {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.events.Contains(id) {
			slog.WarnContext(ctx, "Redelivered event ignored", "id", id)
			continue
		}
		if err := t.events.Record(id); err != nil {
			return err
		}
		_ = t.AdvanceStage(id, vault.StageLinkedInQueue, vault.StagePendingApproval)
	}

	// Records stranded in InProgress without a plan get re-planned too.
	inProgress, err := t.vault.ListIDs(vault.StageInProgress)
	if err != nil {
		return err
	}
	for _, id := range inProgress {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.vault.HasPlan(id) {
			continue
		}
		t.planRecord(ctx, id)
	}

	return nil
}

func (t *Transitioner) planRecord(ctx context.Context, id string) {
	rec, err := t.vault.Read(vault.StageInProgress, id)
	if err != nil {
		slog.WarnContext(ctx, "Cannot read record for planning", "id", id, "error", err)
		return
	}

	plan, err := t.planner.Plan(ctx, rec)
	if err != nil {
		slog.WarnContext(ctx, "Planner failed, will retry next poll",
			"id", id, "planner", t.planner.Name(), "error", err)
		return
	}

	if err := t.vault.WritePlan(id, plan); err != nil {
		slog.ErrorContext(ctx, "Failed to persist plan", "id", id, "error", err)
		return
	}
	slog.InfoContext(ctx, "Plan drafted", "id", id, "planner", t.planner.Name())
}

// AutoArchive moves records whose plan checklist is fully ticked into Done
// together with the checklist itself. Plans without checkboxes never
// auto-complete.
func (t *Transitioner) AutoArchive() error {
	ids, err := t.vault.ListIDs(vault.StageInProgress)
	if err != nil {
		return err
	}

	for _, id := range ids {
		content, err := t.vault.ReadPlan(id)
		if err != nil {
			continue
		}
		if !vault.PlanComplete(content) {
			continue
		}

		if err := t.AdvanceStage(id, vault.StageInProgress, vault.StageDone); err != nil {
			continue
		}
		// The checklist is the audit trail of what was done; it moves to
		// Done with the record, never deleted.
		if err := t.vault.ArchivePlan(id, vault.StageDone); err != nil {
			slog.Warn("Archived record's plan left behind", "id", id, "error", err)
		}
		slog.Info("Record auto-archived", "id", id)
	}
	return nil
}

// CheckRejected reports the ids currently sitting in Rejected, for alerting.
// Records a human dropped there without annotation keep their name; engine
// rejections carry the ERROR_ prefix.
func (t *Transitioner) CheckRejected() ([]string, error) {
	ids, err := t.vault.ListIDs(vault.StageRejected)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if !strings.HasPrefix(id, "ERROR_") {
			slog.Info("Manually rejected record", "id", id)
		}
	}
	return ids, nil
}

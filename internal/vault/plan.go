package vault

import (
	"fmt"
	"os"
	"strings"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"

	"github.com/natefinch/atomic"
)

// PlanPath returns the checklist path for a record. Plans live beside each
// other in the plan stage and are matched to records purely by id.
func (v *Vault) PlanPath(id string) string {
	return v.recordPath(StagePlan, id+".plan")
}

// HasPlan reports whether a plan checklist exists for the record.
func (v *Vault) HasPlan(id string) bool {
	_, err := os.Stat(v.PlanPath(id))
	return err == nil
}

// ReadPlan loads the raw plan checklist for a record.
func (v *Vault) ReadPlan(id string) (string, error) {
	content, err := os.ReadFile(v.PlanPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", hishoErrors.NotFound(fmt.Sprintf("no plan for %s", id))
		}
		return "", hishoErrors.Wrap(err, "read plan")
	}
	return string(content), nil
}

// WritePlan stores a plan checklist for a record, replacing any prior plan.
func (v *Vault) WritePlan(id, content string) error {
	if err := atomic.WriteFile(v.PlanPath(id), strings.NewReader(content)); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("write plan %s: %v", id, err))
	}
	return nil
}

// RemovePlan deletes a record's plan checklist. Missing plans are not an error.
func (v *Vault) RemovePlan(id string) error {
	if err := os.Remove(v.PlanPath(id)); err != nil && !os.IsNotExist(err) {
		return hishoErrors.Storage(fmt.Sprintf("remove plan %s: %v", id, err))
	}
	return nil
}

// ArchivePlan renames a record's plan checklist into the given stage
// directory, so the checklist stays next to the record it belongs to.
// Missing plans are not an error. The archived file keeps its .plan.md name
// and is never listed as a record.
func (v *Vault) ArchivePlan(id string, to Stage) error {
	dst := v.recordPath(to, id+".plan")
	if err := os.Rename(v.PlanPath(id), dst); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return hishoErrors.Storage(fmt.Sprintf("archive plan %s: %v", id, err))
	}
	return nil
}

// CountCheckboxes tallies markdown task-list items in a plan body. A box is
// open when written "[ ]" and done when written "[x]" or "[X]"; everything
// else on the line is ignored.
func CountCheckboxes(content string) (open, done int) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- [") && !strings.HasPrefix(trimmed, "* [") {
			continue
		}
		rest := trimmed[2:]
		switch {
		case strings.HasPrefix(rest, "[ ]"):
			open++
		case strings.HasPrefix(rest, "[x]"), strings.HasPrefix(rest, "[X]"):
			done++
		}
	}
	return open, done
}

// PlanComplete reports whether the plan has at least one checkbox and none
// of them remain open. Plans without checkboxes never auto-complete.
func PlanComplete(content string) bool {
	open, done := CountCheckboxes(content)
	return open == 0 && done > 0
}

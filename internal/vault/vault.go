package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"

	"github.com/natefinch/atomic"
)

const (
	recordExt = ".md"
	// Archived plan checklists travel with their record and share the stage
	// directory; they are never records themselves.
	planExt = ".plan" + recordExt
)

// Vault is the folder-backed task store. Every operation maps onto plain
// files so any conforming producer or approver can interact with the same
// directories directly.
type Vault struct {
	root string
}

// Open prepares a vault at root, creating every stage and auxiliary
// directory that does not exist yet.
func Open(root string) (*Vault, error) {
	for _, stage := range AllStages {
		if err := os.MkdirAll(stage.Dir(root), 0755); err != nil {
			return nil, hishoErrors.Wrap(err, "create stage directory")
		}
	}
	for _, dir := range []string{DirLogs, DirBriefings} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, hishoErrors.Wrap(err, "create vault directory")
		}
	}
	return &Vault{root: root}, nil
}

func (v *Vault) Root() string {
	return v.root
}

// LogsDir returns the append-only log directory.
func (v *Vault) LogsDir() string {
	return filepath.Join(v.root, DirLogs)
}

// BriefingsDir returns the generated-briefings directory.
func (v *Vault) BriefingsDir() string {
	return filepath.Join(v.root, DirBriefings)
}

// DashboardPath returns the rendered status document path.
func (v *Vault) DashboardPath() string {
	return filepath.Join(v.root, "Dashboard.md")
}

func (v *Vault) recordPath(stage Stage, id string) string {
	return filepath.Join(stage.Dir(v.root), id+recordExt)
}

func isRecordFile(entry os.DirEntry) bool {
	name := entry.Name()
	return !entry.IsDir() &&
		strings.HasSuffix(name, recordExt) &&
		!strings.HasSuffix(name, planExt)
}

// ListIDs returns record ids in a stage in lexical order.
func (v *Vault) ListIDs(stage Stage) ([]string, error) {
	entries, err := os.ReadDir(stage.Dir(v.root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, hishoErrors.Wrap(err, "list stage")
	}

	var ids []string
	for _, entry := range entries {
		if !isRecordFile(entry) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// List reads every record in a stage in lexical id order. Unreadable files
// are skipped; a stage listing never fails on a single bad record.
func (v *Vault) List(stage Stage) ([]*Record, error) {
	ids, err := v.ListIDs(stage)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := v.Read(stage, id)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Read loads a single record from a stage.
func (v *Vault) Read(stage Stage, id string) (*Record, error) {
	path := v.recordPath(stage, id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hishoErrors.NotFound(fmt.Sprintf("record %s not in %s", id, stage))
		}
		return nil, hishoErrors.Wrap(err, "stat record")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, hishoErrors.Wrap(err, "read record")
	}

	return ParseRecord(id, string(content), info.ModTime()), nil
}

// Exists reports whether the stage currently holds the record.
func (v *Vault) Exists(stage Stage, id string) bool {
	_, err := os.Stat(v.recordPath(stage, id))
	return err == nil
}

// Create writes a new record into a stage. An existing record with the same
// id is a conflict; nothing is overwritten silently.
func (v *Vault) Create(stage Stage, rec *Record) error {
	path := v.recordPath(stage, rec.ID)
	if _, err := os.Stat(path); err == nil {
		return hishoErrors.Conflict(fmt.Sprintf("record %s already in %s", rec.ID, stage))
	}
	if err := atomic.WriteFile(path, strings.NewReader(rec.Render())); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("write record %s: %v", rec.ID, err))
	}
	return nil
}

// Move relocates a record between stages with rename semantics: a single
// filesystem operation, no copy+delete window. A missing source yields
// ErrNotFound (treated as already-moved by callers); an occupied destination
// yields ErrConflict (skip and log, never overwrite).
func (v *Vault) Move(id string, from, to Stage) error {
	src := v.recordPath(from, id)
	dst := v.recordPath(to, id)

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return hishoErrors.NotFound(fmt.Sprintf("record %s not in %s", id, from))
		}
		return hishoErrors.Wrap(err, "stat record")
	}
	if _, err := os.Stat(dst); err == nil {
		return hishoErrors.Conflict(fmt.Sprintf("record %s already in %s", id, to))
	}
	if err := os.Rename(src, dst); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("move record %s: %v", id, err))
	}

	// A stage move is a modification: rename alone keeps the old mtime, which
	// would skew "completed today" counters and recency ordering.
	now := time.Now()
	if err := os.Chtimes(dst, now, now); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("touch moved record %s: %v", id, err))
	}
	return nil
}

// Reject moves a record into the rejected stage under an ERROR_ prefixed
// name, prepending the reason while preserving the original content in full.
func (v *Vault) Reject(id string, from Stage, reason string) error {
	src := v.recordPath(from, id)
	content, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return hishoErrors.NotFound(fmt.Sprintf("record %s not in %s", id, from))
		}
		return hishoErrors.Wrap(err, "read record")
	}

	annotated := fmt.Sprintf("REJECTED: %s\n\n%s", reason, content)
	dst := v.recordPath(StageRejected, "ERROR_"+id)
	if err := atomic.WriteFile(dst, strings.NewReader(annotated)); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("write rejected record %s: %v", id, err))
	}
	if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
		return hishoErrors.Storage(fmt.Sprintf("remove rejected source %s: %v", id, err))
	}
	return nil
}

// Remove deletes a record file. Used only when an annotated copy has already
// been written elsewhere; original content is never dropped.
func (v *Vault) Remove(stage Stage, id string) error {
	if err := os.Remove(v.recordPath(stage, id)); err != nil {
		if os.IsNotExist(err) {
			return hishoErrors.NotFound(fmt.Sprintf("record %s not in %s", id, stage))
		}
		return hishoErrors.Storage(fmt.Sprintf("remove record %s: %v", id, err))
	}
	return nil
}

// Count returns the number of records in a stage.
func (v *Vault) Count(stage Stage) int {
	ids, err := v.ListIDs(stage)
	if err != nil {
		return 0
	}
	return len(ids)
}

// CountModifiedSince counts records in a stage whose file mtime is at or
// after the cutoff. Used by the dashboard for "completed today" style counters.
func (v *Vault) CountModifiedSince(stage Stage, cutoff time.Time) int {
	entries, err := os.ReadDir(stage.Dir(v.root))
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !isRecordFile(entry) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			count++
		}
	}
	return count
}

// RecentIDs returns up to n record ids in a stage ordered by mtime, newest first.
func (v *Vault) RecentIDs(stage Stage, n int) []string {
	entries, err := os.ReadDir(stage.Dir(v.root))
	if err != nil {
		return nil
	}

	type recent struct {
		id  string
		mod time.Time
	}
	var all []recent
	for _, entry := range entries {
		if !isRecordFile(entry) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		all = append(all, recent{strings.TrimSuffix(entry.Name(), recordExt), info.ModTime()})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].mod.Equal(all[j].mod) {
			return all[i].id < all[j].id
		}
		return all[i].mod.After(all[j].mod)
	})

	if len(all) > n {
		all = all[:n]
	}
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.id)
	}
	return ids
}

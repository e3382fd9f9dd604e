package vault

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v
}

func newTestRecord(id, content string) *Record {
	return ParseRecord(id, content, time.Now())
}

func TestOpenCreatesStageDirectories(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root); err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, stage := range AllStages {
		if _, err := os.Stat(stage.Dir(root)); err != nil {
			t.Errorf("stage dir %s missing: %v", stage, err)
		}
	}
	for _, dir := range []string{DirLogs, DirBriefings} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("dir %s missing: %v", dir, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := Open(root); err != nil {
		t.Fatalf("second Open: %v", err)
	}
}

func TestCreateAndRead(t *testing.T) {
	v := newTestVault(t)

	rec := newTestRecord("task_a", "---\ntype: email\nsubject: hi\n---\nbody text")
	if err := v.Create(StageNeedsAction, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := v.Read(StageNeedsAction, "task_a")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Fields.Get("subject") != "hi" {
		t.Errorf("subject = %q", got.Fields.Get("subject"))
	}
	if got.Body != "body text" {
		t.Errorf("body = %q", got.Body)
	}
}

func TestCreateConflictsOnExistingID(t *testing.T) {
	v := newTestVault(t)

	rec := newTestRecord("task_a", "---\nsubject: one\n---\nfirst")
	if err := v.Create(StageNeedsAction, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := v.Create(StageNeedsAction, newTestRecord("task_a", "---\nsubject: two\n---\nsecond"))
	if !errors.Is(err, hishoErrors.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	got, _ := v.Read(StageNeedsAction, "task_a")
	if got.Body != "first" {
		t.Errorf("original content clobbered: %q", got.Body)
	}
}

func TestReadMissingRecord(t *testing.T) {
	v := newTestVault(t)
	_, err := v.Read(StageNeedsAction, "nope")
	if !errors.Is(err, hishoErrors.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListIDsLexicalOrder(t *testing.T) {
	v := newTestVault(t)

	for _, id := range []string{"task_c", "task_a", "task_b"} {
		if err := v.Create(StageNeedsAction, newTestRecord(id, "---\nsubject: x\n---\nbody")); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	ids, err := v.ListIDs(StageNeedsAction)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	want := []string{"task_a", "task_b", "task_c"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestListSkipsNonRecordFiles(t *testing.T) {
	v := newTestVault(t)

	if err := v.Create(StageNeedsAction, newTestRecord("task_a", "---\nsubject: x\n---\nbody")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := os.WriteFile(filepath.Join(StageNeedsAction.Dir(v.Root()), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ids, err := v.ListIDs(StageNeedsAction)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "task_a" {
		t.Errorf("ids = %v, want [task_a]", ids)
	}
}

func TestMove(t *testing.T) {
	t.Run("rename between stages", func(t *testing.T) {
		v := newTestVault(t)
		if err := v.Create(StageNeedsAction, newTestRecord("task_a", "---\nsubject: x\n---\nbody")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		if err := v.Move("task_a", StageNeedsAction, StageInProgress); err != nil {
			t.Fatalf("Move: %v", err)
		}
		if v.Exists(StageNeedsAction, "task_a") {
			t.Error("record still in source stage")
		}
		if !v.Exists(StageInProgress, "task_a") {
			t.Error("record not in destination stage")
		}
	})

	t.Run("move refreshes last modified", func(t *testing.T) {
		v := newTestVault(t)
		if err := v.Create(StageInProgress, newTestRecord("task_a", "---\nsubject: x\n---\nbody")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		// Age the file two days, as if it had been worked on for a while.
		stale := time.Now().Add(-48 * time.Hour)
		src := v.recordPath(StageInProgress, "task_a")
		if err := os.Chtimes(src, stale, stale); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}

		if err := v.Move("task_a", StageInProgress, StageDone); err != nil {
			t.Fatalf("Move: %v", err)
		}

		rec, err := v.Read(StageDone, "task_a")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if rec.LastModified.Before(time.Now().Add(-time.Minute)) {
			t.Errorf("LastModified = %v, want the move time", rec.LastModified)
		}
		if got := v.CountModifiedSince(StageDone, time.Now().Add(-time.Hour)); got != 1 {
			t.Errorf("recent count = %d, want 1: stage move must count as a modification", got)
		}
	})

	t.Run("missing source", func(t *testing.T) {
		v := newTestVault(t)
		err := v.Move("ghost", StageNeedsAction, StageInProgress)
		if !errors.Is(err, hishoErrors.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("occupied destination", func(t *testing.T) {
		v := newTestVault(t)
		if err := v.Create(StageNeedsAction, newTestRecord("task_a", "---\nsubject: src\n---\nsource")); err != nil {
			t.Fatalf("Create src: %v", err)
		}
		if err := v.Create(StageInProgress, newTestRecord("task_a", "---\nsubject: dst\n---\ndest")); err != nil {
			t.Fatalf("Create dst: %v", err)
		}

		err := v.Move("task_a", StageNeedsAction, StageInProgress)
		if !errors.Is(err, hishoErrors.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}

		got, _ := v.Read(StageInProgress, "task_a")
		if got.Body != "dest" {
			t.Errorf("destination clobbered: %q", got.Body)
		}
		if !v.Exists(StageNeedsAction, "task_a") {
			t.Error("source removed despite conflict")
		}
	})
}

func TestReject(t *testing.T) {
	v := newTestVault(t)
	if err := v.Create(StagePendingApproval, newTestRecord("task_a", "---\ntype: email\n---\noriginal body")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := v.Reject("task_a", StagePendingApproval, "missing to field"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if v.Exists(StagePendingApproval, "task_a") {
		t.Error("source still present")
	}
	content, err := os.ReadFile(filepath.Join(StageRejected.Dir(v.Root()), "ERROR_task_a.md"))
	if err != nil {
		t.Fatalf("read rejected file: %v", err)
	}
	if !strings.HasPrefix(string(content), "REJECTED: missing to field") {
		t.Errorf("missing reason prefix: %q", content)
	}
	if !strings.Contains(string(content), "original body") {
		t.Errorf("original content lost: %q", content)
	}
}

func TestCountModifiedSince(t *testing.T) {
	v := newTestVault(t)
	if err := v.Create(StageDone, newTestRecord("task_a", "---\nsubject: x\n---\nbody")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := v.CountModifiedSince(StageDone, time.Now().Add(-time.Hour)); got != 1 {
		t.Errorf("recent count = %d, want 1", got)
	}
	if got := v.CountModifiedSince(StageDone, time.Now().Add(time.Hour)); got != 0 {
		t.Errorf("future cutoff count = %d, want 0", got)
	}
}

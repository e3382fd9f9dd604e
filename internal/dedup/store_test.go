package dedup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewStoreMissingFile(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "dedup.log"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestRecordAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.log")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if s.Contains("task_a") {
		t.Error("Contains true before Record")
	}
	if err := s.Record("task_a"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !s.Contains("task_a") {
		t.Error("Contains false after Record")
	}

	// Re-record must be a no-op, not a second line.
	if err := s.Record("task_a"); err != nil {
		t.Fatalf("Record again: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := strings.Count(string(data), "task_a"); got != 1 {
		t.Errorf("id appears %d times in log, want 1", got)
	}
}

func TestStoreSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.log")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, id := range []string{"task_a", "task_b"} {
		if err := s.Record(id); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	reloaded, err := NewStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Contains("task_a") || !reloaded.Contains("task_b") {
		t.Error("reloaded store missing recorded ids")
	}
	if reloaded.Contains("task_c") {
		t.Error("reloaded store contains unrecorded id")
	}
}

func TestLoadToleratesMessyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedup.log")
	content := "task_a\n\ntask_a\n  task_b  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if !s.Contains("task_b") {
		t.Error("trimmed id not loaded")
	}
}

// Package dedup persists the set of action ids that have already been
// dispatched. The store is an append-only file with one id per line, so a
// crash mid-write can at worst truncate the final line, never corrupt
// earlier entries.
package dedup

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"
)

type Store struct {
	path string
	seen map[string]struct{}
	mu   sync.RWMutex
}

// NewStore opens the dedup log at path, creating it when absent. Existing
// entries are loaded into memory; duplicate lines are tolerated.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		seen: make(map[string]struct{}),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return hishoErrors.Wrap(err, "open dedup log")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		s.seen[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return hishoErrors.Wrap(err, "read dedup log")
	}
	return nil
}

// Contains reports whether the id has already been recorded.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}

// Record durably appends the id to the log before updating the in-memory
// set. Callers record BEFORE dispatch: a failure here must abort the send,
// because an unrecorded dispatch could repeat after a crash.
func (s *Store) Record(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return nil
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return hishoErrors.Storage(fmt.Sprintf("open dedup log: %v", err))
	}
	defer file.Close()

	if _, err := file.WriteString(id + "\n"); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("append dedup entry: %v", err))
	}
	if err := file.Sync(); err != nil {
		return hishoErrors.Storage(fmt.Sprintf("sync dedup log: %v", err))
	}

	s.seen[id] = struct{}{}
	return nil
}

// Len returns the number of recorded ids.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

package engine

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/sender"
)

// SendEntry is one line of the append-only dispatch log. An "attempt" entry
// is written before the channel call; the terminal entry after. The pair
// bounds the crash window during which dedup decides recovery.
type SendEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	RunID      string        `json:"run_id,omitempty"`
	RecordID   string        `json:"record_id"`
	Channel    string        `json:"channel"`
	To         string        `json:"to,omitempty"`
	Subject    string        `json:"subject,omitempty"`
	Status     sender.Status `json:"status"`
	TrackingID string        `json:"tracking_id,omitempty"`
	Detail     string        `json:"detail,omitempty"`
}

// StatusAttempt marks the pre-dispatch entry.
const StatusAttempt sender.Status = "attempt"

type SendLogFilter struct {
	Channel   string
	Status    sender.Status
	StartTime time.Time
	EndTime   time.Time
}

// SendLog is one JSONL dispatch journal file.
type SendLog struct {
	mu      sync.RWMutex
	logPath string
	now     func() time.Time
}

func NewSendLog(path string) *SendLog {
	return &SendLog{
		logPath: path,
		now:     time.Now,
	}
}

// Journal holds the per-channel dispatch logs under the vault's Logs
// directory.
type Journal struct {
	logs map[string]*SendLog
}

func NewJournal(logsDir string) (*Journal, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, hishoErrors.Wrap(err, "create logs directory")
	}
	return &Journal{
		logs: map[string]*SendLog{
			sender.ChannelEmail:    NewSendLog(filepath.Join(logsDir, "sent_emails.jsonl")),
			sender.ChannelLinkedIn: NewSendLog(filepath.Join(logsDir, "linkedin_posts.jsonl")),
		},
	}, nil
}

// For returns the channel's log. Unknown channels share the email log so no
// dispatch ever goes unjournaled.
func (j *Journal) For(channel string) *SendLog {
	if log, ok := j.logs[channel]; ok {
		return log
	}
	return j.logs[sender.ChannelEmail]
}

// CountSince counts a channel's terminal dispatches at or after the cutoff.
func (j *Journal) CountSince(channel string, cutoff time.Time) (int, error) {
	return j.For(channel).CountSince(channel, cutoff)
}

// Log appends an entry. The write is flushed before returning; for attempt
// entries a failure here must abort the dispatch.
func (sl *SendLog) Log(entry *SendEntry) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = sl.now()
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return hishoErrors.Wrap(err, "marshal send entry")
	}

	f, err := os.OpenFile(sl.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return hishoErrors.Wrap(err, "open send log")
	}
	defer f.Close()

	if _, err := f.Write(append(entryJSON, '\n')); err != nil {
		return hishoErrors.Wrap(err, "write send entry")
	}
	if err := f.Sync(); err != nil {
		return hishoErrors.Wrap(err, "sync send log")
	}

	slog.Debug("Send entry logged", "record_id", entry.RecordID, "status", entry.Status)
	return nil
}

// Query returns entries matching the filter, oldest first. Corrupt lines are
// skipped rather than failing the read.
func (sl *SendLog) Query(filter *SendLogFilter) ([]*SendEntry, error) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	file, err := os.Open(sl.logPath)
	if os.IsNotExist(err) {
		return []*SendEntry{}, nil
	}
	if err != nil {
		return nil, hishoErrors.Wrap(err, "open send log")
	}
	defer file.Close()

	var entries []*SendEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry SendEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			slog.Warn("Failed to parse send entry", "line", string(line), "error", err)
			continue
		}

		if filter != nil && !matchesFilter(&entry, filter) {
			continue
		}
		entries = append(entries, &entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, hishoErrors.Wrap(err, "read send log")
	}
	return entries, nil
}

// CountSince counts terminal dispatches at or after the cutoff, optionally
// narrowed to one channel. Attempt entries are not counted.
func (sl *SendLog) CountSince(channel string, cutoff time.Time) (int, error) {
	entries, err := sl.Query(&SendLogFilter{Channel: channel, StartTime: cutoff})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.Status == sender.StatusSent || entry.Status == sender.StatusDuplicate {
			count++
		}
	}
	return count, nil
}

func matchesFilter(entry *SendEntry, filter *SendLogFilter) bool {
	if filter.Channel != "" && entry.Channel != filter.Channel {
		return false
	}
	if filter.Status != "" && entry.Status != filter.Status {
		return false
	}
	if !filter.StartTime.IsZero() && entry.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && entry.Timestamp.After(filter.EndTime) {
		return false
	}
	return true
}

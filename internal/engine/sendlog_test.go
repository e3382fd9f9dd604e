package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/hisho/internal/sender"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoutesChannels(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(dir)
	require.NoError(t, err)

	require.NoError(t, j.For(sender.ChannelEmail).Log(&SendEntry{
		RecordID: "e1", Channel: sender.ChannelEmail, Status: sender.StatusSent,
	}))
	require.NoError(t, j.For(sender.ChannelLinkedIn).Log(&SendEntry{
		RecordID: "l1", Channel: sender.ChannelLinkedIn, Status: sender.StatusSent,
	}))

	emails, err := j.For(sender.ChannelEmail).Query(nil)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "e1", emails[0].RecordID)

	posts, err := j.For(sender.ChannelLinkedIn).Query(nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "l1", posts[0].RecordID)

	_, err = os.Stat(filepath.Join(dir, "sent_emails.jsonl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "linkedin_posts.jsonl"))
	assert.NoError(t, err)
}

func TestSendLogQueryFilters(t *testing.T) {
	log := NewSendLog(filepath.Join(t.TempDir(), "send.jsonl"))
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []*SendEntry{
		{Timestamp: base, RecordID: "a", Channel: sender.ChannelEmail, Status: StatusAttempt},
		{Timestamp: base.Add(time.Second), RecordID: "a", Channel: sender.ChannelEmail, Status: sender.StatusSent},
		{Timestamp: base.Add(2 * time.Hour), RecordID: "b", Channel: sender.ChannelEmail, Status: sender.StatusFailed},
	}
	for _, e := range entries {
		require.NoError(t, log.Log(e))
	}

	sent, err := log.Query(&SendLogFilter{Status: sender.StatusSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "a", sent[0].RecordID)

	recent, err := log.Query(&SendLogFilter{StartTime: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].RecordID)
}

func TestCountSinceIgnoresAttemptsAndFailures(t *testing.T) {
	j, err := NewJournal(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	log := j.For(sender.ChannelEmail)
	require.NoError(t, log.Log(&SendEntry{Timestamp: base, Channel: sender.ChannelEmail, Status: StatusAttempt}))
	require.NoError(t, log.Log(&SendEntry{Timestamp: base, Channel: sender.ChannelEmail, Status: sender.StatusSent}))
	require.NoError(t, log.Log(&SendEntry{Timestamp: base, Channel: sender.ChannelEmail, Status: sender.StatusDuplicate}))
	require.NoError(t, log.Log(&SendEntry{Timestamp: base, Channel: sender.ChannelEmail, Status: sender.StatusFailed}))

	count, err := j.CountSince(sender.ChannelEmail, base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQueryMissingLog(t *testing.T) {
	log := NewSendLog(filepath.Join(t.TempDir(), "absent.jsonl"))
	entries, err := log.Query(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuerySkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "send.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"record_id\":\"a\",\"status\":\"sent\"}\n"), 0644))

	entries, err := NewSendLog(path).Query(nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].RecordID)
}

package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(limit int) (*Limiter, *time.Time) {
	l := New(limit)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !l.Allow("email") {
			t.Fatalf("Allow false at count %d", i)
		}
		l.Record("email")
	}
	if l.Allow("email") {
		t.Error("Allow true at limit")
	}
	if got := l.Remaining("email"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestWindowResetAfterOneHour(t *testing.T) {
	l, now := newTestLimiter(2)

	l.Record("email")
	l.Record("email")
	if l.Allow("email") {
		t.Fatal("Allow true at limit")
	}

	*now = now.Add(59 * time.Minute)
	if l.Allow("email") {
		t.Error("window reset early")
	}

	*now = now.Add(time.Minute)
	if !l.Allow("email") {
		t.Error("window did not reset after an hour")
	}
	if got := l.Remaining("email"); got != 2 {
		t.Errorf("Remaining after reset = %d, want 2", got)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1)

	l.Record("email")
	if l.Allow("email") {
		t.Error("email should be exhausted")
	}
	if !l.Allow("linkedin") {
		t.Error("linkedin should be untouched")
	}
}

package dashboard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harunnryd/hisho/internal/engine"
	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/sender"
	"github.com/harunnryd/hisho/internal/vault"

	"github.com/natefinch/atomic"
)

// Counters is one snapshot of the vault's workload.
type Counters struct {
	Pending          int
	Plans            int
	PendingApprovals int
	CompletedToday   int
	EmailsSentToday  int
	PostsThisWeek    int
	Rejected         int
}

// Aggregator refreshes Dashboard.md from the vault and the send journal.
// Output is a pure function of vault state and the clock, so refreshing
// twice without changes rewrites the identical document.
type Aggregator struct {
	vault   *vault.Vault
	journal *engine.Journal
	now     func() time.Time
}

func NewAggregator(v *vault.Vault, j *engine.Journal) *Aggregator {
	return &Aggregator{vault: v, journal: j, now: time.Now}
}

// Collect gathers the current counters.
func (a *Aggregator) Collect() (*Counters, error) {
	now := a.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -int(now.Weekday()))

	emailsToday, err := a.journal.CountSince(sender.ChannelEmail, startOfDay)
	if err != nil {
		return nil, err
	}
	postsThisWeek, err := a.journal.CountSince(sender.ChannelLinkedIn, startOfWeek)
	if err != nil {
		return nil, err
	}

	return &Counters{
		Pending:          a.vault.Count(vault.StageNeedsAction) + a.vault.Count(vault.StageInProgress),
		Plans:            a.vault.Count(vault.StagePlan),
		PendingApprovals: a.vault.Count(vault.StagePendingApproval) + a.vault.Count(vault.StageApproved),
		CompletedToday:   a.vault.CountModifiedSince(vault.StageDone, startOfDay),
		EmailsSentToday:  emailsToday,
		PostsThisWeek:    postsThisWeek,
		Rejected:         a.vault.Count(vault.StageRejected),
	}, nil
}

// Refresh rewrites Dashboard.md's owned sections, preserving foreign ones.
func (a *Aggregator) Refresh() error {
	counters, err := a.Collect()
	if err != nil {
		return err
	}

	old := &Document{}
	if content, err := os.ReadFile(a.vault.DashboardPath()); err == nil {
		old = ParseDocument(string(content))
	}

	rendered := Merge(old, map[string]string{
		"Status":          a.renderStatus(counters),
		"Recent Activity": a.renderRecentActivity(),
		"Alerts":          a.renderAlerts(counters),
	}, a.renderPreamble())

	if err := atomic.WriteFile(a.vault.DashboardPath(), strings.NewReader(rendered)); err != nil {
		return hishoErrors.Wrap(err, "write dashboard")
	}
	return nil
}

func (a *Aggregator) renderPreamble() string {
	return fmt.Sprintf("# Dashboard\n\nLast updated: %s\n", a.now().Format("2006-01-02 15:04"))
}

func (a *Aggregator) renderStatus(c *Counters) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- Pending tasks: %d\n", c.Pending))
	sb.WriteString(fmt.Sprintf("- Active plans: %d\n", c.Plans))
	sb.WriteString(fmt.Sprintf("- Awaiting approval: %d\n", c.PendingApprovals))
	sb.WriteString(fmt.Sprintf("- Completed today: %d\n", c.CompletedToday))
	sb.WriteString(fmt.Sprintf("- Emails sent today: %d\n", c.EmailsSentToday))
	sb.WriteString(fmt.Sprintf("- LinkedIn posts this week: %d\n", c.PostsThisWeek))
	return sb.String()
}

func (a *Aggregator) renderRecentActivity() string {
	var sb strings.Builder
	for _, stage := range []vault.Stage{vault.StageSent, vault.StageDone} {
		for _, id := range a.vault.RecentIDs(stage, 5) {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", stage, id))
		}
	}
	if sb.Len() == 0 {
		return "- No recent activity\n"
	}
	return sb.String()
}

func (a *Aggregator) renderAlerts(c *Counters) string {
	var sb strings.Builder
	if c.Rejected > 0 {
		sb.WriteString(fmt.Sprintf("- %d record(s) in Rejected need attention\n", c.Rejected))
	}
	if c.PendingApprovals > 0 {
		sb.WriteString(fmt.Sprintf("- %d record(s) awaiting human approval\n", c.PendingApprovals))
	}
	if sb.Len() == 0 {
		return "- None\n"
	}
	return sb.String()
}

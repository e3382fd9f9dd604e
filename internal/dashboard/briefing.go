package dashboard

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/sender"
	"github.com/harunnryd/hisho/internal/vault"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

type briefingMeta struct {
	Type      string `yaml:"type"`
	Generated string `yaml:"generated"`
	Period    string `yaml:"period"`
}

// WriteDailyBriefing renders the morning briefing into Briefings/. An
// existing briefing for the same day is overwritten with fresh numbers.
func (a *Aggregator) WriteDailyBriefing() error {
	counters, err := a.Collect()
	if err != nil {
		return err
	}
	now := a.now()

	var body strings.Builder
	body.WriteString(fmt.Sprintf("# Daily Briefing — %s\n\n", now.Format("Monday, 2 January 2006")))
	body.WriteString("## Workload\n\n")
	body.WriteString(a.renderStatus(counters))
	body.WriteString("\n## Needs Your Attention\n\n")
	body.WriteString(a.renderAlerts(counters))

	path := filepath.Join(a.vault.BriefingsDir(), now.Format("2006-01-02")+"_briefing.md")
	return writeBriefing(path, briefingMeta{
		Type:      "daily_briefing",
		Generated: now.Format(time.RFC3339),
		Period:    now.Format("2006-01-02"),
	}, body.String())
}

// WriteWeeklySummary renders the week's dispatch totals into Briefings/.
func (a *Aggregator) WriteWeeklySummary() error {
	now := a.now()
	weekStart := now.AddDate(0, 0, -7)

	emails, err := a.journal.CountSince(sender.ChannelEmail, weekStart)
	if err != nil {
		return err
	}
	posts, err := a.journal.CountSince(sender.ChannelLinkedIn, weekStart)
	if err != nil {
		return err
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("# Weekly Summary — week ending %s\n\n", now.Format("2 January 2006")))
	body.WriteString(fmt.Sprintf("- Emails sent: %d\n", emails))
	body.WriteString(fmt.Sprintf("- LinkedIn posts: %d\n", posts))
	body.WriteString(fmt.Sprintf("- Tasks completed: %d\n", a.vault.CountModifiedSince(vault.StageDone, weekStart)))
	body.WriteString(fmt.Sprintf("- Rejected: %d\n", a.vault.Count(vault.StageRejected)))

	path := filepath.Join(a.vault.BriefingsDir(), now.Format("2006-01-02")+"_weekly_summary.md")
	return writeBriefing(path, briefingMeta{
		Type:      "weekly_summary",
		Generated: now.Format(time.RFC3339),
		Period:    weekStart.Format("2006-01-02") + ".." + now.Format("2006-01-02"),
	}, body.String())
}

func writeBriefing(path string, meta briefingMeta, body string) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return hishoErrors.Wrap(err, "encode briefing frontmatter")
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n---\n\n")
	buf.WriteString(body)

	if err := atomic.WriteFile(path, &buf); err != nil {
		return hishoErrors.Wrap(err, "write briefing")
	}
	return nil
}

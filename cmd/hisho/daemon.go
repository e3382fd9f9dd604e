package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/harunnryd/hisho/internal/agent"
	"github.com/harunnryd/hisho/internal/config"
	"github.com/harunnryd/hisho/internal/daemon"
	"github.com/harunnryd/hisho/internal/daemon/components"
	"github.com/harunnryd/hisho/internal/dashboard"
	"github.com/harunnryd/hisho/internal/dedup"
	"github.com/harunnryd/hisho/internal/engine"
	"github.com/harunnryd/hisho/internal/notify"
	"github.com/harunnryd/hisho/internal/ratelimit"
	"github.com/harunnryd/hisho/internal/scheduler"
	"github.com/harunnryd/hisho/internal/sender"
	"github.com/harunnryd/hisho/internal/vault"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the secretary as a long-lived daemon",
	Long:  `Polls the vault's stage directories, drafts plans, processes the approval gate, refreshes the dashboard, and writes scheduled briefings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		forceClean, _ := cmd.Flags().GetBool("force-clean-locks")

		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		daemonMgr, err := daemon.NewDaemon(cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon manager: %w", err)
		}
		daemonMgr.SetForceCleanup(forceClean)

		v, err := vault.Open(cfg.Vault.Path)
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}

		sched, err := buildScheduler(v, cfg)
		if err != nil {
			return err
		}

		daemonMgr.AddComponent(components.NewVaultLock(cfg.Vault))
		daemonMgr.AddComponent(components.NewScheduler(sched))
		daemonMgr.AddHealthCheck("rejected-backlog", func(context.Context) error {
			if n := v.Count(vault.StageRejected); n > 0 {
				return fmt.Errorf("%d rejected records awaiting correction", n)
			}
			return nil
		})

		slog.Info("Hisho daemon starting up...", "vault", cfg.Vault.Path)
		if err := daemonMgr.Start(context.Background()); err != nil {
			// Cancellation via signal/context is a graceful shutdown case for CLI.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Hisho daemon stopped gracefully")
				return nil
			}
			return fmt.Errorf("daemon failed: %w", err)
		}

		slog.Info("Hisho daemon stopped gracefully")
		return nil
	},
}

func buildScheduler(v *vault.Vault, cfg *config.Config) (*scheduler.Scheduler, error) {
	dedupStore, err := dedup.NewStore(filepath.Join(v.LogsDir(), "dispatched_ids.log"))
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}

	// Ingested event ids live apart from dispatched ids: the gate's
	// duplicate recovery must never mistake a redelivered event for an
	// already-sent record.
	eventStore, err := dedup.NewStore(filepath.Join(v.LogsDir(), "ingested_ids.log"))
	if err != nil {
		return nil, fmt.Errorf("open ingestion ledger: %w", err)
	}

	journal, err := engine.NewJournal(v.LogsDir())
	if err != nil {
		return nil, fmt.Errorf("open send journal: %w", err)
	}

	limiter := ratelimit.New(cfg.Approvals.HourlyActionLimit)
	planner, err := buildPlanner(cfg.Agent)
	if err != nil {
		return nil, err
	}
	notifier := buildNotifier(cfg.Notify)
	client := buildClient(cfg.Approvals)

	transitioner := engine.NewTransitioner(v, planner, eventStore)
	gate := engine.NewGate(v, dedupStore, limiter, journal, client, notifier)
	aggregator := dashboard.NewAggregator(v, journal)

	sched, err := scheduler.NewScheduler(cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	sched.AddPollJob(scheduler.Job{Name: "ingest", Run: transitioner.IngestPending})
	sched.AddPollJob(scheduler.Job{Name: "approvals", Run: gate.ProcessApprovals})
	sched.AddPollJob(scheduler.Job{Name: "rejected-check", Run: func(context.Context) error {
		_, err := transitioner.CheckRejected()
		return err
	}})
	sched.AddPollJob(scheduler.Job{Name: "auto-archive", Run: func(context.Context) error {
		return transitioner.AutoArchive()
	}})
	sched.AddPollJob(scheduler.Job{Name: "dashboard", Run: func(context.Context) error {
		return aggregator.Refresh()
	}})

	if err := sched.AddDailyJob(scheduler.Job{Name: "daily-briefing", Run: func(ctx context.Context) error {
		if err := aggregator.WriteDailyBriefing(); err != nil {
			return err
		}
		return notifier.Announce(ctx, "Daily briefing is ready in Briefings/")
	}}, cfg.Scheduler.DailyBriefingTime); err != nil {
		return nil, err
	}

	if err := sched.AddWeeklyJob(scheduler.Job{Name: "weekly-summary", Run: func(context.Context) error {
		return aggregator.WriteWeeklySummary()
	}}, cfg.Scheduler.WeeklySummaryDay, cfg.Scheduler.WeeklySummaryTime); err != nil {
		return nil, err
	}

	return sched, nil
}

func buildPlanner(cfg config.AgentConfig) (agent.Planner, error) {
	switch cfg.Provider {
	case "openai":
		return agent.NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "exec":
		timeout, err := config.DurationOrDefault(cfg.Timeout, config.DefaultAgentTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse agent timeout: %w", err)
		}
		return agent.NewExec(cfg.Command, timeout)
	case "none", "":
		return agent.Null{}, nil
	default:
		return nil, fmt.Errorf("unknown agent provider %q", cfg.Provider)
	}
}

func buildNotifier(cfg config.NotifyConfig) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Slack.Enabled {
		notifiers = append(notifiers, notify.NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel))
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("Telegram notifier disabled", "error", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	if len(notifiers) == 0 {
		return notify.Null{}
	}
	return notify.NewFanout(notifiers...)
}

func buildClient(cfg config.ApprovalsConfig) sender.Client {
	if !cfg.DryRun {
		slog.Warn("approvals.dry_run is false but no channel credentials are wired; keeping dry-run client")
	}
	return sender.NewDryRun()
}

func init() {
	daemonCmd.Flags().Bool("force-clean-locks", false, "remove stale vault locks before starting")
	rootCmd.AddCommand(daemonCmd)
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/hisho/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Vault     VaultConfig     `koanf:"vault"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Approvals ApprovalsConfig `koanf:"approvals"`
	Agent     AgentConfig     `koanf:"agent"`
	Notify    NotifyConfig    `koanf:"notify"`
	Daemon    DaemonConfig    `koanf:"daemon"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type VaultConfig struct {
	Path         string `koanf:"path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type SchedulerConfig struct {
	PollInterval         string `koanf:"poll_interval"`
	DailyBriefingTime    string `koanf:"daily_briefing_time"`   // "HH:MM"
	WeeklySummaryDay     string `koanf:"weekly_summary_day"`    // "sunday"
	WeeklySummaryTime    string `koanf:"weekly_summary_time"`   // "HH:MM"
	ShutdownTimeout      string `koanf:"shutdown_timeout"`
	InFlightPollInterval string `koanf:"in_flight_poll_interval"`
}

type ApprovalsConfig struct {
	HourlyActionLimit int  `koanf:"hourly_action_limit"`
	DryRun            bool `koanf:"dry_run"`
}

type AgentConfig struct {
	Provider string `koanf:"provider"` // "exec", "openai" or "none"
	Command  string `koanf:"command"`
	Timeout  string `koanf:"timeout"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
}

type NotifyConfig struct {
	Slack    SlackConfig    `koanf:"slack"`
	Telegram TelegramConfig `koanf:"telegram"`
}

type SlackConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	Channel  string `koanf:"channel"`
}

type TelegramConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token"`
	ChatID   int64  `koanf:"chat_id"`
}

type DaemonConfig struct {
	ShutdownTimeout     string `koanf:"shutdown_timeout"`
	HealthCheckInterval string `koanf:"health_check_interval"`
	StaleLockTTL        string `koanf:"stale_lock_ttl"`
}

const (
	DefaultServerLogLevel             = "info"
	DefaultVaultLockTimeout           = "30s"
	DefaultVaultLockRetry             = "100ms"
	DefaultVaultLockMaxRetry          = 300
	DefaultSchedulerPollInterval      = "2m"
	DefaultSchedulerDailyBriefing     = "08:00"
	DefaultSchedulerWeeklySummaryDay  = "sunday"
	DefaultSchedulerWeeklySummaryTime = "21:00"
	DefaultSchedulerShutdownTimeout   = "30s"
	DefaultSchedulerInFlightPoll      = "100ms"
	DefaultApprovalsHourlyActionLimit = 50
	DefaultApprovalsDryRun            = true
	DefaultAgentProvider              = "exec"
	DefaultAgentCommand               = "qwen -p"
	DefaultAgentTimeout               = "5m"
	DefaultAgentModel                 = "gpt-4-turbo"
	DefaultDaemonShutdownTimeout      = "30s"
	DefaultDaemonHealthCheckInterval  = "30s"
	DefaultDaemonStaleLockTTL         = "15m"
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.log_level":                  DefaultServerLogLevel,
		"vault.path":                        filepath.Join(os.Getenv("HOME"), ".hisho", "vault"),
		"vault.lock_timeout":                DefaultVaultLockTimeout,
		"vault.lock_retry":                  DefaultVaultLockRetry,
		"vault.lock_max_retry":              DefaultVaultLockMaxRetry,
		"scheduler.poll_interval":           DefaultSchedulerPollInterval,
		"scheduler.daily_briefing_time":     DefaultSchedulerDailyBriefing,
		"scheduler.weekly_summary_day":      DefaultSchedulerWeeklySummaryDay,
		"scheduler.weekly_summary_time":     DefaultSchedulerWeeklySummaryTime,
		"scheduler.shutdown_timeout":        DefaultSchedulerShutdownTimeout,
		"scheduler.in_flight_poll_interval": DefaultSchedulerInFlightPoll,
		"approvals.hourly_action_limit":     DefaultApprovalsHourlyActionLimit,
		"approvals.dry_run":                 DefaultApprovalsDryRun,
		"agent.provider":                    DefaultAgentProvider,
		"agent.command":                     DefaultAgentCommand,
		"agent.timeout":                     DefaultAgentTimeout,
		"agent.model":                       DefaultAgentModel,
		"daemon.shutdown_timeout":           DefaultDaemonShutdownTimeout,
		"daemon.health_check_interval":      DefaultDaemonHealthCheckInterval,
		"daemon.stale_lock_ttl":             DefaultDaemonStaleLockTTL,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".hisho", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("HISHO_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HISHO_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Agent.APIKey == "" {
		cfg.Agent.APIKey = key
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	vaultPath, err := expandConfiguredPath(cfg.Vault.Path)
	if err != nil {
		return err
	}
	if vaultPath != "" {
		cfg.Vault.Path = vaultPath
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.LogLevel != DefaultServerLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultServerLogLevel, cfg.Server.LogLevel)
	}
	if cfg.Scheduler.PollInterval != DefaultSchedulerPollInterval {
		t.Errorf("Expected default poll interval %s, got %s", DefaultSchedulerPollInterval, cfg.Scheduler.PollInterval)
	}
	if cfg.Scheduler.DailyBriefingTime != DefaultSchedulerDailyBriefing {
		t.Errorf("Expected default briefing time %s, got %s", DefaultSchedulerDailyBriefing, cfg.Scheduler.DailyBriefingTime)
	}
	if cfg.Scheduler.WeeklySummaryDay != DefaultSchedulerWeeklySummaryDay {
		t.Errorf("Expected default weekly summary day %s, got %s", DefaultSchedulerWeeklySummaryDay, cfg.Scheduler.WeeklySummaryDay)
	}
	if cfg.Approvals.HourlyActionLimit != DefaultApprovalsHourlyActionLimit {
		t.Errorf("Expected default hourly action limit %d, got %d", DefaultApprovalsHourlyActionLimit, cfg.Approvals.HourlyActionLimit)
	}
	if !cfg.Approvals.DryRun {
		t.Error("Dry run should default to true")
	}
	if cfg.Agent.Provider != DefaultAgentProvider {
		t.Errorf("Expected default agent provider %s, got %s", DefaultAgentProvider, cfg.Agent.Provider)
	}
	if cfg.Vault.Path == "" {
		t.Error("Vault path should have a default")
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")

	configDir := filepath.Join(home, ".hisho")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configYAML := `
scheduler:
  poll_interval: 30s
approvals:
  hourly_action_limit: 5
  dry_run: false
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Scheduler.PollInterval != "30s" {
		t.Errorf("Expected poll interval 30s, got %s", cfg.Scheduler.PollInterval)
	}
	if cfg.Approvals.HourlyActionLimit != 5 {
		t.Errorf("Expected hourly action limit 5, got %d", cfg.Approvals.HourlyActionLimit)
	}
	if cfg.Approvals.DryRun {
		t.Error("Dry run should be overridden to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("HISHO_SERVER_LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.LogLevel != "debug" {
		t.Errorf("Expected env-overridden log level debug, got %s", cfg.Server.LogLevel)
	}
}

func TestLoadInjectsOpenAIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Agent.APIKey != "sk-test" {
		t.Errorf("Expected injected API key, got %q", cfg.Agent.APIKey)
	}
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", "2m")
	if err != nil {
		t.Fatalf("DurationOrDefault failed: %v", err)
	}
	if d != 2*time.Minute {
		t.Errorf("Expected 2m, got %v", d)
	}

	d, err = DurationOrDefault("45s", "2m")
	if err != nil {
		t.Fatalf("DurationOrDefault failed: %v", err)
	}
	if d != 45*time.Second {
		t.Errorf("Expected 45s, got %v", d)
	}

	if _, err := DurationOrDefault("bogus", "2m"); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestClockTime(t *testing.T) {
	hour, minute, err := ClockTime("08:00")
	if err != nil {
		t.Fatalf("ClockTime failed: %v", err)
	}
	if hour != 8 || minute != 0 {
		t.Errorf("Expected 8:00, got %d:%d", hour, minute)
	}

	if _, _, err := ClockTime("25:99"); err == nil {
		t.Error("Expected error for invalid clock time")
	}
}

func TestWeekday(t *testing.T) {
	day, err := Weekday("Sunday")
	if err != nil {
		t.Fatalf("Weekday failed: %v", err)
	}
	if day != time.Sunday {
		t.Errorf("Expected Sunday, got %v", day)
	}

	if _, err := Weekday("funday"); err == nil {
		t.Error("Expected error for unknown weekday")
	}
}

// Package scheduler runs the engine's jobs on a poll interval and fires the
// wall-clock briefing jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/hisho/internal/config"
	hishoErrors "github.com/harunnryd/hisho/internal/errors"
	"github.com/harunnryd/hisho/internal/logger"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

// Job is one unit of scheduled work. Poll jobs run every tick in the order
// they were registered; an error is logged, never aborts the tick.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

type wallClockJob struct {
	job      Job
	schedule cron.Schedule
	next     time.Time
}

type Scheduler struct {
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	running       bool
	ticker        *time.Ticker
	inFlightTicks uint

	pollJobs      []Job
	wallClockJobs []*wallClockJob

	pollInterval         time.Duration
	shutdownTimeout      time.Duration
	inFlightPollInterval time.Duration
	now                  func() time.Time
}

func NewScheduler(cfg config.SchedulerConfig) (*Scheduler, error) {
	pollInterval, err := config.DurationOrDefault(cfg.PollInterval, config.DefaultSchedulerPollInterval)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler poll interval: %w", err)
	}

	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultSchedulerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler shutdown timeout: %w", err)
	}

	inFlightPollInterval, err := config.DurationOrDefault(cfg.InFlightPollInterval, config.DefaultSchedulerInFlightPoll)
	if err != nil {
		return nil, fmt.Errorf("parse scheduler in-flight poll interval: %w", err)
	}

	return &Scheduler{
		pollInterval:         pollInterval,
		shutdownTimeout:      shutdownTimeout,
		inFlightPollInterval: inFlightPollInterval,
		now:                  time.Now,
	}, nil
}

// AddPollJob registers a job that runs on every tick. Registration order is
// execution order.
func (s *Scheduler) AddPollJob(job Job) {
	s.pollJobs = append(s.pollJobs, job)
}

// AddDailyJob registers a job that fires once a day at HH:MM local time.
func (s *Scheduler) AddDailyJob(job Job, clockTime string) error {
	hour, minute, err := config.ClockTime(clockTime)
	if err != nil {
		return fmt.Errorf("parse daily time: %w", err)
	}
	return s.addWallClockJob(job, fmt.Sprintf("%d %d * * *", minute, hour))
}

// AddWeeklyJob registers a job that fires once a week at the given weekday
// and HH:MM local time.
func (s *Scheduler) AddWeeklyJob(job Job, weekday, clockTime string) error {
	day, err := config.Weekday(weekday)
	if err != nil {
		return fmt.Errorf("parse weekly day: %w", err)
	}
	hour, minute, err := config.ClockTime(clockTime)
	if err != nil {
		return fmt.Errorf("parse weekly time: %w", err)
	}
	return s.addWallClockJob(job, fmt.Sprintf("%d %d * * %d", minute, hour, int(day)))
}

func (s *Scheduler) addWallClockJob(job Job, spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	s.wallClockJobs = append(s.wallClockJobs, &wallClockJob{
		job:      job,
		schedule: schedule,
	})
	return nil
}

func (s *Scheduler) Init(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	// First occurrences are computed from startup: a trigger that passed
	// while the daemon was down is not backfilled.
	now := s.now()
	for _, wj := range s.wallClockJobs {
		wj.next = wj.schedule.Next(now)
	}

	slog.Info("Scheduler initialized",
		"poll_interval", s.pollInterval,
		"poll_jobs", len(s.pollJobs),
		"wall_clock_jobs", len(s.wallClockJobs),
	)
	return nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.ticker = time.NewTicker(s.pollInterval)

	go s.run()

	slog.Info("Scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.waitForInFlightTick()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Scheduler stopped gracefully")
		return nil
	case <-time.After(s.shutdownTimeout):
		slog.Warn("Scheduler shutdown timeout, force stopping")
		return hishoErrors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Health(ctx context.Context) error {
	if s.ctx == nil {
		return hishoErrors.Internal("scheduler not initialized")
	}
	if !s.IsRunning() {
		return hishoErrors.Internal("scheduler not running")
	}
	return nil
}

func (s *Scheduler) PollInterval() time.Duration {
	return s.pollInterval
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.onTick()
		case <-s.ctx.Done():
			slog.Info("Scheduler run loop stopped")
			return
		}
	}
}

func (s *Scheduler) onTick() {
	s.mu.Lock()
	s.inFlightTicks++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlightTicks--
		s.mu.Unlock()
	}()

	ctx := logger.WithRunID(s.ctx, ulid.Make().String())
	s.Tick(ctx, s.now())
}

// Tick runs one scheduling pass at the given instant: every poll job in
// order, then any wall-clock job whose trigger time has arrived. Exposed so
// tests drive the scheduler with a synthetic clock.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for _, job := range s.pollJobs {
		if ctx.Err() != nil {
			return
		}
		if err := job.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Poll job failed", "job", job.Name, "error", err)
		}
	}

	for _, wj := range s.wallClockJobs {
		if ctx.Err() != nil {
			return
		}
		if wj.next.IsZero() || now.Before(wj.next) {
			continue
		}
		slog.InfoContext(ctx, "Wall-clock job firing", "job", wj.job.Name, "scheduled", wj.next)
		if err := wj.job.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Wall-clock job failed", "job", wj.job.Name, "error", err)
		}
		// One fire per trigger, however late the tick was.
		wj.next = wj.schedule.Next(now)
	}
}

func (s *Scheduler) waitForInFlightTick() {
	for {
		s.mu.RLock()
		inFlight := s.inFlightTicks
		s.mu.RUnlock()
		if inFlight == 0 {
			return
		}
		time.Sleep(s.inFlightPollInterval)
	}
}

// Package daemon supervises the hisho components as one process:
// dependency-ordered init, reverse-order shutdown, and a periodic health
// loop that also runs vault-level checks (lock liveness, rejected backlog).
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/harunnryd/hisho/internal/config"
	"github.com/harunnryd/hisho/internal/vault"
)

// HealthCheck is a vault-level probe run on every health tick, independent
// of any single component. A non-nil error marks the daemon degraded but
// never stops it; the operator reads the log and intervenes.
type HealthCheck func(ctx context.Context) error

type Daemon struct {
	cfg           *config.Config
	components    []Component
	shutdownOrder []string
	checks        map[string]HealthCheck
	health        HealthStatus
	uptimeStart   time.Time
	mu            sync.RWMutex
	healthDone    chan struct{}
	forceCleanup  bool
}

func NewDaemon(cfg *config.Config) (*Daemon, error) {
	if cfg.Vault.Path == "" {
		return nil, fmt.Errorf("vault path cannot be empty")
	}

	return &Daemon{
		cfg:         cfg,
		checks:      make(map[string]HealthCheck),
		health:      StatusStarting,
		uptimeStart: time.Now(),
		healthDone:  make(chan struct{}),
	}, nil
}

func (d *Daemon) AddComponent(comp Component) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.components = append(d.components, comp)
	// Shutdown walks the registration order backwards.
	d.shutdownOrder = append([]string{comp.Name()}, d.shutdownOrder...)
	slog.Info("Component registered", "component", comp.Name(), "total", len(d.components))
}

// AddHealthCheck registers a named probe for the health loop. Registering
// the same name again replaces the earlier probe.
func (d *Daemon) AddHealthCheck(name string, check HealthCheck) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checks[name] = check
}

func (d *Daemon) SetForceCleanup(force bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forceCleanup = force
}

func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Hisho daemon starting", "vault", d.cfg.Vault.Path)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(d.cfg.Vault.Path, 0755); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	staleLockTTL, err := config.DurationOrDefault(d.cfg.Daemon.StaleLockTTL, config.DefaultDaemonStaleLockTTL)
	if err != nil {
		return fmt.Errorf("parse daemon stale lock ttl: %w", err)
	}
	if err := vault.CleanupStaleLocks(d.cfg.Vault.Path, staleLockTTL, d.forceCleanup); err != nil {
		slog.Warn("Stale lock cleanup failed", "vault", d.cfg.Vault.Path, "error", err)
	}

	if err := d.initializeComponents(ctx); err != nil {
		d.rollback(ctx)
		return fmt.Errorf("component initialization failed: %w", err)
	}

	shutdownTimeout, err := config.DurationOrDefault(d.cfg.Daemon.ShutdownTimeout, config.DefaultDaemonShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse daemon shutdown timeout: %w", err)
	}

	if err := d.startComponents(ctx); err != nil {
		d.gracefulShutdown(ctx, shutdownTimeout)
		return fmt.Errorf("component startup failed: %w", err)
	}

	d.setHealth(StatusRunning)
	slog.Info("Hisho daemon is running", "vault", d.cfg.Vault.Path, "components", len(d.components))

	go d.runHealthLoop(ctx)

	<-ctx.Done()

	slog.Info("Shutting down", "reason", ctx.Err())
	d.setHealth(StatusStopping)
	close(d.healthDone)
	if err := d.gracefulShutdown(context.Background(), shutdownTimeout); err != nil {
		return err
	}

	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return nil
}

func (d *Daemon) Health() HealthStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

func (d *Daemon) setHealth(status HealthStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.health = status
}

func (d *Daemon) ComponentHealth() map[string]*ComponentHealth {
	d.mu.RLock()
	components := make([]Component, len(d.components))
	copy(components, d.components)
	d.mu.RUnlock()

	result := make(map[string]*ComponentHealth, len(components))
	for _, comp := range components {
		health, err := comp.Health(context.Background())
		if health == nil {
			health = &ComponentHealth{Name: comp.Name(), Healthy: false}
		}
		if err != nil {
			health.Error = err
		}
		result[comp.Name()] = health
	}
	return result
}

func (d *Daemon) Component(name string) Component {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.componentByName(name)
}

func (d *Daemon) componentByName(name string) Component {
	for _, comp := range d.components {
		if comp.Name() == name {
			return comp
		}
	}
	return nil
}

func (d *Daemon) initializeComponents(ctx context.Context) error {
	order, err := d.resolveInitOrder()
	if err != nil {
		return err
	}

	for _, name := range order {
		comp := d.componentByName(name)
		if err := comp.Init(ctx); err != nil {
			return fmt.Errorf("component %s init failed: %w", name, err)
		}
		slog.Info("Component initialized", "component", name)
	}
	return nil
}

func (d *Daemon) startComponents(ctx context.Context) error {
	for _, comp := range d.components {
		if err := comp.Start(ctx); err != nil {
			return fmt.Errorf("component %s startup failed: %w", comp.Name(), err)
		}
		slog.Info("Component started", "component", comp.Name())
	}
	return nil
}

func (d *Daemon) gracefulShutdown(ctx context.Context, timeout time.Duration) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.shutdownComponents(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			slog.Error("Shutdown completed with error", "error", err)
		} else {
			slog.Info("Shutdown completed")
		}
		return err
	case <-shutdownCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("shutdown cancelled: %w", ctx.Err())
		}
		slog.Error("Shutdown timeout exceeded", "timeout", timeout)
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}

func (d *Daemon) shutdownComponents(ctx context.Context) error {
	for _, name := range d.shutdownOrder {
		comp := d.componentByName(name)
		if comp == nil {
			continue
		}
		if err := comp.Stop(ctx); err != nil {
			slog.Error("Component stop failed", "component", name, "error", err)
		} else {
			slog.Info("Component stopped", "component", name)
		}
	}

	d.setHealth(StatusStopped)
	return nil
}

// rollback stops whatever got initialized before an init failure, newest
// first. Stop on a never-started component must be safe; the components in
// this repo all tolerate it.
func (d *Daemon) rollback(ctx context.Context) {
	slog.Warn("Rolling back initialized components")
	for i := len(d.components) - 1; i >= 0; i-- {
		comp := d.components[i]
		if err := comp.Stop(ctx); err != nil {
			slog.Error("Rollback failed", "component", comp.Name(), "error", err)
		}
	}
	d.setHealth(StatusStopped)
}

func (d *Daemon) runHealthLoop(ctx context.Context) {
	interval, err := config.DurationOrDefault(d.cfg.Daemon.HealthCheckInterval, config.DefaultDaemonHealthCheckInterval)
	if err != nil {
		slog.Error("Parse daemon health check interval failed", "error", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.healthDone:
			return
		case <-ticker.C:
			d.checkHealth(ctx)
		}
	}
}

func (d *Daemon) checkHealth(ctx context.Context) {
	unhealthy := 0
	for name, health := range d.ComponentHealth() {
		if ctx.Err() != nil {
			return
		}
		if !health.Healthy {
			unhealthy++
			slog.Warn("Component unhealthy", "component", name, "detail", health.Detail, "error", health.Error)
		} else if health.Detail != "" {
			slog.Debug("Component healthy", "component", name, "detail", health.Detail)
		}
	}

	d.mu.RLock()
	checks := make(map[string]HealthCheck, len(d.checks))
	for name, check := range d.checks {
		checks[name] = check
	}
	d.mu.RUnlock()

	for name, check := range checks {
		if err := check(ctx); err != nil {
			unhealthy++
			slog.Warn("Health check failed", "check", name, "error", err)
		}
	}

	if unhealthy > 0 {
		slog.Warn("Daemon degraded", "unhealthy", unhealthy)
	}
}

// resolveInitOrder topologically sorts components by their declared
// dependencies. A dependency on an unregistered component or a cycle is a
// hard error before any Init runs.
func (d *Daemon) resolveInitOrder() ([]string, error) {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	order := make([]string, 0, len(d.components))

	var visit func(name string) error
	visit = func(name string) error {
		if inStack[name] {
			return fmt.Errorf("circular dependency involving component %s", name)
		}
		if visited[name] {
			return nil
		}

		comp := d.componentByName(name)
		if comp == nil {
			return fmt.Errorf("component %s not registered", name)
		}

		inStack[name] = true
		for _, dep := range comp.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		inStack[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, comp := range d.components {
		if err := visit(comp.Name()); err != nil {
			return nil, err
		}
	}

	slog.Debug("Initialization order resolved", "order", order)
	return order, nil
}

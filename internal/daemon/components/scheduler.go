package components

import (
	"context"
	"fmt"

	"github.com/harunnryd/hisho/internal/daemon"
	"github.com/harunnryd/hisho/internal/scheduler"
)

// Scheduler adapts the poll scheduler to the daemon lifecycle.
type Scheduler struct {
	inner *scheduler.Scheduler
}

func NewScheduler(inner *scheduler.Scheduler) *Scheduler {
	return &Scheduler{inner: inner}
}

func (c *Scheduler) Name() string {
	return "scheduler"
}

func (c *Scheduler) Dependencies() []string {
	return []string{"vault-lock"}
}

func (c *Scheduler) Init(ctx context.Context) error {
	return c.inner.Init(ctx)
}

func (c *Scheduler) Start(ctx context.Context) error {
	return c.inner.Start(ctx)
}

func (c *Scheduler) Stop(ctx context.Context) error {
	return c.inner.Stop(ctx)
}

func (c *Scheduler) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	health := &daemon.ComponentHealth{Name: c.Name(), Healthy: true}
	if err := c.inner.Health(ctx); err != nil {
		health.Healthy = false
		health.Error = err
	} else {
		health.Detail = fmt.Sprintf("polling every %s", c.inner.PollInterval())
	}
	return health, nil
}

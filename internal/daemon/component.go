package daemon

import (
	"context"
)

type HealthStatus string

const (
	StatusStarting HealthStatus = "starting"
	StatusRunning  HealthStatus = "running"
	StatusStopping HealthStatus = "stopping"
	StatusStopped  HealthStatus = "stopped"
)

// ComponentHealth is one component's answer to a health probe. Detail is a
// short human-readable note (lock hold time, poll interval) surfaced in the
// health log alongside the boolean.
type ComponentHealth struct {
	Name    string
	Healthy bool
	Detail  string
	Error   error
}

// Component is a supervised piece of the hisho daemon. Dependencies name
// other components that must init first; the vault lock, for example, must
// be held before the scheduler starts ticking over the stages.
type Component interface {
	Name() string
	Dependencies() []string
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) (*ComponentHealth, error)
}

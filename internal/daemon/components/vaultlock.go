// Package components wraps hisho subsystems in the daemon's Component
// lifecycle.
package components

import (
	"context"
	"fmt"
	"time"

	"github.com/harunnryd/hisho/internal/config"
	"github.com/harunnryd/hisho/internal/daemon"
	"github.com/harunnryd/hisho/internal/vault"
)

// VaultLock owns the exclusive vault.lock for the daemon's lifetime. Every
// other component that touches the vault depends on it.
type VaultLock struct {
	cfg  config.VaultConfig
	lock *vault.FileLock
}

func NewVaultLock(cfg config.VaultConfig) *VaultLock {
	return &VaultLock{cfg: cfg}
}

func (c *VaultLock) Name() string {
	return "vault-lock"
}

func (c *VaultLock) Dependencies() []string {
	return nil
}

func (c *VaultLock) Init(ctx context.Context) error {
	lockTimeout, err := config.DurationOrDefault(c.cfg.LockTimeout, config.DefaultVaultLockTimeout)
	if err != nil {
		return fmt.Errorf("parse vault lock timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(c.cfg.LockRetry, config.DefaultVaultLockRetry)
	if err != nil {
		return fmt.Errorf("parse vault lock retry: %w", err)
	}
	maxRetry := c.cfg.LockMaxRetry
	if maxRetry <= 0 {
		maxRetry = config.DefaultVaultLockMaxRetry
	}

	lock, err := vault.NewFileLock(c.cfg.Path, &vault.FileLockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: maxRetry,
	})
	if err != nil {
		return err
	}
	c.lock = lock
	return nil
}

func (c *VaultLock) Start(ctx context.Context) error {
	return nil
}

func (c *VaultLock) Stop(ctx context.Context) error {
	if c.lock != nil {
		c.lock.Unlock()
	}
	return nil
}

func (c *VaultLock) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	healthy := c.lock != nil && c.lock.IsLocked()
	health := &daemon.ComponentHealth{Name: c.Name(), Healthy: healthy}
	if healthy {
		health.Detail = fmt.Sprintf("held for %s", c.lock.HeldDuration().Round(time.Second))
	} else {
		health.Error = fmt.Errorf("vault lock not held")
	}
	return health, nil
}

package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SuspensionExpirer lifts suspensions whose expiry has passed.
type SuspensionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// SuspensionExpiryManager periodically lifts timed suspensions so users are
// released without waiting for an admin.
type SuspensionExpiryManager struct {
	suspensions SuspensionExpirer
	logger      *slog.Logger
	interval    time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewSuspensionExpiryManager creates a new expiry manager
func NewSuspensionExpiryManager(
	suspensions SuspensionExpirer,
	logger *slog.Logger,
	interval time.Duration,
) *SuspensionExpiryManager {
	return &SuspensionExpiryManager{
		suspensions: suspensions,
		logger:      logger,
		interval:    interval,
		now:         time.Now,
		stopCh:      make(chan struct{}),
	}
}

// Start runs a sweep immediately and then once per interval until Stop is
// called or ctx is cancelled.
func (m *SuspensionExpiryManager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			m.RunOnce(ctx)
		case <-m.stopCh:
			m.logger.Info("suspension expiry manager stopped")
			return
		case <-ctx.Done():
			m.logger.Info("suspension expiry manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single sweep and returns the number of users released.
func (m *SuspensionExpiryManager) RunOnce(ctx context.Context) int64 {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	released, err := m.suspensions.ExpireDue(sweepCtx, m.now())
	if err != nil {
		m.logger.Error("failed to expire suspensions", slog.Any("error", err))
		return 0
	}

	if released > 0 {
		m.logger.Info("expired suspensions lifted", slog.Int64("users_released", released))
	}
	return released
}

// Stop signals the manager to stop. Safe to call more than once.
func (m *SuspensionExpiryManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

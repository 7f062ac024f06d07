// Package worker holds background jobs that run outside the request path.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredDeleter purges records whose expiry time lies before a cutoff.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically purges expired registration records. DynamoDB and
// Redis evict on their own TTLs; only the PostgreSQL backend needs this.
// Purging is best-effort: a failed sweep is logged and retried next tick.
type Sweeper struct {
	store    ExpiredDeleter
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper over st. interval <= 0 selects 5 minutes.
func NewSweeper(st ExpiredDeleter, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: st, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Warn("sweep expired registrations", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("purged expired registrations", zap.Int64("count", n))
	}
}

package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/logging"
)

const (
	defaultSweepInterval = 24 * time.Hour
	defaultMaxAge        = 90 * 24 * time.Hour
)

// Retention prunes interaction logs past their age limit on a fixed
// interval.
type Retention struct {
	logs     domain.InteractionLogRepository
	interval time.Duration
	maxAge   time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRetention(logs domain.InteractionLogRepository, interval, maxAge time.Duration, logger logging.Logger) *Retention {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Retention{
		logs:     logs,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

func (r *Retention) Start() {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.run(ctx)
	r.logger.Info(logging.Mongo, logging.Analytics, "interaction log retention started", map[logging.ExtraKey]any{
		"interval": r.interval.String(),
		"maxAge":   r.maxAge.String(),
	})
}

func (r *Retention) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	<-r.done
}

func (r *Retention) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Retention) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.maxAge)
	if err := r.logs.DeleteOlderThan(ctx, cutoff); err != nil {
		r.logger.Warn(logging.Mongo, logging.Analytics, "retention sweep failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}

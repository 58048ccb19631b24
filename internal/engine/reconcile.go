package engine

import (
	"context"
	"sync"
	"time"

	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

// Reconciler corrects attendance and interaction-total drift for every live
// room on a fixed interval. The join/leave fast path updates the same
// counters immediately; this loop exists for the cases the fast path misses,
// an ungraceful disconnect above all.
type Reconciler struct {
	engine   *Engine
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(engine *Engine, interval time.Duration, logger logging.Logger) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the loop. Safe to call once; Stop releases it.
func (r *Reconciler) Start() {
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
	r.logger.Info(logging.Engine, logging.Reconciliation, "metrics reconciler started", map[logging.ExtraKey]any{
		"interval": r.interval.String(),
	})
}

func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	<-r.done
	r.logger.Info(logging.Engine, logging.Reconciliation, "metrics reconciler stopped", nil)
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reconcileAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// reconcileAll walks every live room. A failing room is logged and skipped
// so one broken room never starves the rest.
func (r *Reconciler) reconcileAll(ctx context.Context) {
	e := r.engine

	events, err := e.repos.LiveEvents.ListLive(ctx)
	if err != nil {
		e.metrics.ObserveReconcileFailure()
		r.logger.Error(logging.Engine, logging.Reconciliation, "listing live events failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	for i := range events {
		if err := r.reconcileRoom(ctx, events[i].ID); err != nil {
			e.metrics.ObserveReconcileFailure()
			r.logger.Warn(logging.Engine, logging.Reconciliation, "room reconcile failed", map[logging.ExtraKey]any{
				logging.RoomID:       events[i].ID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}

	e.metrics.ObserveReconcileRun()
}

func (r *Reconciler) reconcileRoom(ctx context.Context, roomID string) error {
	e := r.engine

	lock := e.locks.get(roomID)
	lock.Lock()
	defer lock.Unlock()

	event, err := e.repos.LiveEvents.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !event.IsLive() {
		// Ended between the list and the lock.
		return nil
	}

	total, err := e.totalInteractions(ctx, roomID)
	if err != nil {
		return err
	}

	changed := event.ObserveAttendance(e.registry.Count(roomID))
	if event.Metrics.TotalInteractions != total {
		event.Metrics.TotalInteractions = total
		changed = true
	}

	if !changed {
		return nil
	}

	if err := e.repos.LiveEvents.Update(ctx, event); err != nil {
		return err
	}

	e.router.Publish(roomID, ws.MetricsUpdate, event.Metrics)
	return nil
}

package notify

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ronniejay22/Knot-APP-sub003/store"
)

// claimStore is the slice of the store the worker needs beyond the
// scheduler: the conditional status update used as an optimistic claim.
type claimStore interface {
	UpdateNotificationStatus(ctx context.Context, update *store.UpdateNotificationStatus) (*store.Notification, error)
}

// Worker drives the periodic claim-and-deliver cycle. Each due notification
// is claimed with a conditional pending -> claimed update, so concurrent
// worker instances attempt delivery at most once per row.
type Worker struct {
	store     claimStore
	scheduler *Scheduler
	metrics   *Metrics

	tick    time.Duration
	pool    int
	limiter *rate.Limiter

	now func() time.Time
}

// WorkerConfig tunes the delivery loop.
type WorkerConfig struct {
	// Tick is the poll interval; defaults to one minute.
	Tick time.Duration
	// Pool is the number of concurrent deliveries; defaults to 4.
	Pool int
	// Rate caps deliveries per second across the pool; defaults to 10/s.
	Rate float64
}

// NewWorker creates a Worker.
func NewWorker(s claimStore, scheduler *Scheduler, metrics *Metrics, cfg WorkerConfig) *Worker {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	if cfg.Pool <= 0 {
		cfg.Pool = 4
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	return &Worker{
		store:     s,
		scheduler: scheduler,
		metrics:   metrics,
		tick:      cfg.Tick,
		pool:      cfg.Pool,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Pool),
		now:       time.Now,
	}
}

// Run ticks until the context is cancelled. Per-item failures never stop
// the loop.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	slog.Info("notification worker started", "tick", w.tick, "pool", w.pool)
	for {
		if err := w.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("notification tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("notification worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick processes everything due right now.
func (w *Worker) Tick(ctx context.Context) error {
	due, err := w.scheduler.DueNotifications(ctx, w.now(), 0)
	if err != nil {
		return errors.Wrap(err, "failed to list due notifications")
	}
	if w.metrics != nil {
		w.metrics.dueBacklog.Set(float64(len(due)))
	}
	if len(due) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.pool)
	for _, notification := range due {
		notification := notification
		g.Go(func() error {
			w.process(gctx, notification)
			return nil
		})
	}
	return g.Wait()
}

// process claims and delivers one notification. Outcomes are recorded on
// the row and in metrics; errors are logged, never propagated, so one bad
// row cannot starve the rest of the tick.
func (w *Worker) process(ctx context.Context, notification *store.Notification) {
	claimed, err := w.store.UpdateNotificationStatus(ctx, &store.UpdateNotificationStatus{
		ID:             notification.ID,
		ExpectedStatus: store.NotificationPending,
		Status:         store.NotificationClaimed,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if w.metrics != nil {
				w.metrics.claimLosses.Inc()
			}
			return
		}
		slog.Error("failed to claim notification", "notification", notification.ID, "error", err)
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	start := w.now()
	outcome, deliverErr := w.scheduler.Deliver(ctx, claimed)
	if deliverErr != nil {
		slog.Warn("notification delivery failed", "notification", claimed.ID, "error", deliverErr)
	}
	if w.metrics != nil {
		w.metrics.recordDelivery(string(outcome), w.now().Sub(start).Seconds())
	}

	// The row is terminal either way; yearly milestones get next year's
	// pending rows scheduled right away.
	if err := w.scheduler.RescheduleRecurrences(ctx, claimed); err != nil {
		slog.Warn("failed to reschedule recurrence", "notification", claimed.ID, "error", err)
	}
}

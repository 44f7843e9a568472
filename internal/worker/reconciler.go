package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/archstore/internal/domain/model"
)

// ReconcileFacade exposes the subset of application functionality required by the worker.
type ReconcileFacade interface {
	OrdersForReconciliation(ctx context.Context, olderThan time.Duration, limit int) ([]model.Order, error)
	ReconcileOrder(ctx context.Context, order model.Order) (bool, error)
}

// Options tunes the reconciler.
type Options struct {
	Interval  time.Duration
	OlderThan time.Duration
	BatchSize int
	Workers   int
}

// Reconciler settles pending orders whose webhook never arrived by polling
// the payment provider with a pool of workers.
type Reconciler struct {
	facade    ReconcileFacade
	interval  time.Duration
	olderThan time.Duration
	batchSize int
	workers   int
	logger    *slog.Logger

	jobs    chan model.Order
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.Mutex
	running bool
}

// NewReconciler constructs the reconciler worker pool.
func NewReconciler(facade ReconcileFacade, opts Options, logger *slog.Logger) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	return &Reconciler{
		facade:    facade,
		interval:  opts.Interval,
		olderThan: opts.OlderThan,
		batchSize: opts.BatchSize,
		workers:   opts.Workers,
		logger:    logger,
	}
}

// Enabled reports whether a positive interval was configured.
func (r *Reconciler) Enabled() bool {
	return r.interval > 0
}

// Start launches background processing. It is a no-op when the reconciler
// is disabled or already running.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.Enabled() {
		r.logger.Info("payment reconciler disabled")
		return
	}
	if r.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.jobs = make(chan model.Order, r.batchSize*r.workers)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(runCtx, r.jobs)
	}

	r.wg.Add(1)
	go r.dispatch(runCtx, r.jobs)
}

// Stop waits for all workers to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Reconciler) dispatch(ctx context.Context, jobs chan<- model.Order) {
	defer r.wg.Done()
	defer close(jobs)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fetchAndDispatch(ctx, jobs)
		}
	}
}

func (r *Reconciler) fetchAndDispatch(ctx context.Context, jobs chan<- model.Order) {
	orders, err := r.facade.OrdersForReconciliation(ctx, r.olderThan, r.batchSize)
	if err != nil {
		r.logger.Error("fetch orders for reconciliation failed", slog.Any("error", err))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case jobs <- order:
		}
	}
}

func (r *Reconciler) worker(ctx context.Context, jobs <-chan model.Order) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-jobs:
			if !ok {
				return
			}
			r.handleOrder(ctx, order)
		}
	}
}

func (r *Reconciler) handleOrder(ctx context.Context, order model.Order) {
	if _, err := r.facade.ReconcileOrder(ctx, order); err != nil {
		r.logger.Error("reconcile order failed", slog.String("order_id", order.ID), slog.Any("error", err))
	}
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/repo"
)

const batchSize = 50

// OrderReconciler refreshes one order from its remote payment.
type OrderReconciler interface {
	ReconcileOrder(ctx context.Context, order *domain.Order) error
}

// ReconciliationWorker picks up orders whose visitor never came back from the
// payment page and asks the gateway what happened to them.
type ReconciliationWorker struct {
	orderRepo  repo.OrderRepo
	reconciler OrderReconciler
	interval   time.Duration
	staleAfter time.Duration
	log        *slog.Logger
}

func NewReconciliationWorker(
	orderRepo repo.OrderRepo,
	reconciler OrderReconciler,
	interval time.Duration,
	staleAfter time.Duration,
	log *slog.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		orderRepo:  orderRepo,
		reconciler: reconciler,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
	}
}

func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.log.Info("Reconciliation worker started", "interval", rw.interval, "stale_after", rw.staleAfter)

	for {
		select {
		case <-ctx.Done():
			rw.log.Info("Reconciliation worker stopped")
			return
		case <-ticker.C:
			if _, err := rw.process(ctx); err != nil {
				rw.log.Error("Reconciliation failed", "error", err)
			}
		}
	}
}

// process reconciles one batch of stale orders and returns how many of them
// were refreshed. A failing order is touched so it goes to the back of the
// queue instead of blocking newer stale orders.
func (rw *ReconciliationWorker) process(ctx context.Context) (int, error) {
	stuckOrders, err := rw.orderRepo.FindStuckOrders(ctx, rw.staleAfter, batchSize)
	if err != nil {
		return 0, err
	}
	if len(stuckOrders) == 0 {
		return 0, nil
	}

	rw.log.Info("Found stale orders", "count", len(stuckOrders))

	done := 0
	for i := range stuckOrders {
		order := &stuckOrders[i]
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if err := rw.reconciler.ReconcileOrder(ctx, order); err != nil {
			rw.log.Warn("Failed to reconcile order", "order_id", order.ID, "payment_id", order.PaymentID, "error", err)
			if err := rw.orderRepo.TouchOrder(ctx, order); err != nil {
				rw.log.Error("Failed to requeue order", "order_id", order.ID, "error", err)
			}
			continue
		}
		done++
		if order.Status != domain.OrderAwaitingConfirmation {
			rw.log.Info("Order settled", "order_id", order.ID, "status", order.Status)
		}
	}
	return done, nil
}

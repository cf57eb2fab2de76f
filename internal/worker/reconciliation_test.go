package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderRepo struct {
	repo.OrderRepo
	stuck     []domain.Order
	findErr   error
	touchErr  error
	olderThan time.Duration
	touched   []int64
	clock     time.Time
}

func (s *stubOrderRepo) FindStuckOrders(_ context.Context, olderThan time.Duration, limit int) ([]domain.Order, error) {
	s.olderThan = olderThan
	if s.findErr != nil {
		return nil, s.findErr
	}
	out := slices.Clone(s.stuck)
	slices.SortStableFunc(out, func(a, b domain.Order) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	if len(out) > limit {
		return out[:limit], nil
	}
	return out, nil
}

func (s *stubOrderRepo) TouchOrder(_ context.Context, order *domain.Order) error {
	s.touched = append(s.touched, order.ID)
	if s.touchErr != nil {
		return s.touchErr
	}
	s.clock = s.clock.Add(time.Second)
	for i := range s.stuck {
		if s.stuck[i].ID == order.ID {
			s.stuck[i].UpdatedAt = s.clock
		}
	}
	order.UpdatedAt = s.clock
	return nil
}

type stubReconciler struct {
	seen   []int64
	failOn map[int64]bool
}

func (s *stubReconciler) ReconcileOrder(_ context.Context, order *domain.Order) error {
	s.seen = append(s.seen, order.ID)
	if s.failOn[order.ID] {
		return errors.New("gateway down")
	}
	order.Status = domain.OrderPaid
	return nil
}

func newTestWorker(r repo.OrderRepo, rec OrderReconciler) *ReconciliationWorker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReconciliationWorker(r, rec, time.Millisecond, 15*time.Minute, log)
}

func TestProcess_SkipsFailuresAndContinues(t *testing.T) {
	orders := &stubOrderRepo{stuck: []domain.Order{
		{ID: 1, Status: domain.OrderAwaitingConfirmation, PaymentID: "a"},
		{ID: 2, Status: domain.OrderAwaitingConfirmation, PaymentID: "b"},
		{ID: 3, Status: domain.OrderAwaitingConfirmation, PaymentID: "c"},
	}}
	rec := &stubReconciler{failOn: map[int64]bool{2: true}}

	done, err := newTestWorker(orders, rec).process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, done)
	assert.Equal(t, []int64{1, 2, 3}, rec.seen)
	assert.Equal(t, 15*time.Minute, orders.olderThan)
	assert.Equal(t, []int64{2}, orders.touched)
}

func TestProcess_FailingOrdersDoNotStarveNewerOnes(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := &stubOrderRepo{clock: base.Add(time.Hour)}
	failOn := make(map[int64]bool)
	for id := int64(1); id <= batchSize; id++ {
		orders.stuck = append(orders.stuck, domain.Order{
			ID: id, Status: domain.OrderAwaitingConfirmation, PaymentID: "gone", UpdatedAt: base.Add(time.Duration(id) * time.Millisecond),
		})
		failOn[id] = true
	}
	newer := int64(batchSize + 1)
	orders.stuck = append(orders.stuck, domain.Order{
		ID: newer, Status: domain.OrderAwaitingConfirmation, PaymentID: "fresh", UpdatedAt: base.Add(time.Minute),
	})
	rec := &stubReconciler{failOn: failOn}
	w := newTestWorker(orders, rec)

	done, err := w.process(context.Background())
	require.NoError(t, err)
	assert.Zero(t, done)
	assert.Len(t, orders.touched, batchSize)
	assert.NotContains(t, rec.seen, newer)

	rec.seen = nil
	done, err = w.process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, newer, rec.seen[0])
}

func TestProcess_TouchErrorIsNotFatal(t *testing.T) {
	orders := &stubOrderRepo{
		stuck:    []domain.Order{{ID: 1, Status: domain.OrderAwaitingConfirmation, PaymentID: "a"}, {ID: 2, Status: domain.OrderAwaitingConfirmation, PaymentID: "b"}},
		touchErr: errors.New("db down"),
	}
	rec := &stubReconciler{failOn: map[int64]bool{1: true}}

	done, err := newTestWorker(orders, rec).process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, []int64{1, 2}, rec.seen)
}

func TestProcess_LookupError(t *testing.T) {
	orders := &stubOrderRepo{findErr: errors.New("db down")}
	rec := &stubReconciler{}

	_, err := newTestWorker(orders, rec).process(context.Background())
	assert.Error(t, err)
	assert.Empty(t, rec.seen)
}

func TestRun_StopsOnCancel(t *testing.T) {
	orders := &stubOrderRepo{}
	w := newTestWorker(orders, &stubReconciler{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

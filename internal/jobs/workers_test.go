// AngelaMos | 2026
// workers_test.go

package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/riverqueue/river"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmoney/habit-ledger/internal/admin"
	"github.com/habitmoney/habit-ledger/internal/ledger"
	"github.com/habitmoney/habit-ledger/internal/memstore"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingEnqueuer struct {
	batches [][]string
	err     error
}

func (e *recordingEnqueuer) EnqueueResets(_ context.Context, ids []string) error {
	if e.err != nil {
		return e.err
	}
	e.batches = append(e.batches, append([]string(nil), ids...))
	return nil
}

func seededLedger(t *testing.T, users ...string) *ledger.Service {
	t.Helper()
	svc := ledger.NewService(memstore.New().Ledger(), ledger.ServiceConfig{})
	for _, id := range users {
		require.NoError(t, svc.RecordCompletion(
			context.Background(), id, "h", decimal.NewFromInt(2), ""))
	}
	return svc
}

func TestResetBalanceWorker(t *testing.T) {
	ctx := context.Background()
	svc := seededLedger(t, "u1")
	w := NewResetBalanceWorker(svc, discard)

	err := w.Work(ctx, &river.Job[ResetBalanceArgs]{Args: ResetBalanceArgs{UserID: "u1"}})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	receipts, err := svc.Resets(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, receipts, 1)

	err = w.Work(ctx, &river.Job[ResetBalanceArgs]{Args: ResetBalanceArgs{UserID: "u1"}})
	require.NoError(t, err, "a second run finds a zero balance and does nothing")
}

func TestSweepWorker_Pages(t *testing.T) {
	users := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		users = append(users, fmt.Sprintf("user-%02d", i))
	}
	svc := seededLedger(t, users...)

	enq := &recordingEnqueuer{}
	w := NewSweepWorker(svc, enq, discard)

	err := w.Work(context.Background(), &river.Job[SweepArgs]{Args: SweepArgs{BatchSize: 3}})
	require.NoError(t, err)

	require.Len(t, enq.batches, 3)
	assert.Equal(t, []string{"user-00", "user-01", "user-02"}, enq.batches[0])
	assert.Equal(t, []string{"user-06"}, enq.batches[2])
}

func TestSweepWorker_ExactMultipleStops(t *testing.T) {
	svc := seededLedger(t, "a", "b")
	enq := &recordingEnqueuer{}
	w := NewSweepWorker(svc, enq, discard)

	require.NoError(t, w.Work(context.Background(),
		&river.Job[SweepArgs]{Args: SweepArgs{BatchSize: 2}}))
	assert.Len(t, enq.batches, 1)
}

func TestSweepWorker_EnqueueFailure(t *testing.T) {
	svc := seededLedger(t, "a")
	enq := &recordingEnqueuer{err: errors.New("queue full")}
	w := NewSweepWorker(svc, enq, discard)

	err := w.Work(context.Background(), &river.Job[SweepArgs]{Args: SweepArgs{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestScheduler_WithoutClient(t *testing.T) {
	s := &Scheduler{}

	_, err := s.TriggerSweep(context.Background())
	assert.ErrorIs(t, err, admin.ErrJobsDisabled)
	assert.ErrorIs(t, s.EnqueueResets(context.Background(), []string{"u1"}), admin.ErrJobsDisabled)
}

func TestArgsKinds(t *testing.T) {
	assert.Equal(t, "reset_balance", ResetBalanceArgs{}.Kind())
	assert.Equal(t, "reset_sweep", SweepArgs{}.Kind())
	assert.True(t, ResetBalanceArgs{}.InsertOpts().UniqueOpts.ByArgs)
}

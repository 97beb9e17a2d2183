// AngelaMos | 2026
// workers.go

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/habitmoney/habit-ledger/internal/ledger"
)

type ResetBalanceArgs struct {
	UserID string `json:"user_id"`
}

func (ResetBalanceArgs) Kind() string { return "reset_balance" }

// InsertOpts keeps a sweep that overlaps a slow predecessor from queueing the
// same user twice.
func (ResetBalanceArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		UniqueOpts: river.UniqueOpts{
			ByArgs:   true,
			ByPeriod: time.Minute,
		},
	}
}

type SweepArgs struct {
	BatchSize int `json:"batch_size"`
}

func (SweepArgs) Kind() string { return "reset_sweep" }

type Resetter interface {
	ResetBalance(ctx context.Context, userID string) (*ledger.ResetResult, error)
}

type BalanceLister interface {
	UsersWithBalance(ctx context.Context, after string, limit int) ([]string, error)
}

type Enqueuer interface {
	EnqueueResets(ctx context.Context, userIDs []string) error
}

type ResetBalanceWorker struct {
	river.WorkerDefaults[ResetBalanceArgs]
	resetter Resetter
	logger   *slog.Logger
}

func NewResetBalanceWorker(r Resetter, logger *slog.Logger) *ResetBalanceWorker {
	return &ResetBalanceWorker{resetter: r, logger: logger}
}

func (w *ResetBalanceWorker) Work(
	ctx context.Context,
	job *river.Job[ResetBalanceArgs],
) error {
	res, err := w.resetter.ResetBalance(ctx, job.Args.UserID)
	if err != nil {
		return fmt.Errorf("scheduled reset for %s: %w", job.Args.UserID, err)
	}

	if res.Reset {
		w.logger.InfoContext(ctx, "scheduled reset archived balance",
			"user_id", job.Args.UserID,
			"reset_id", res.ResetID,
		)
	}
	return nil
}

const defaultSweepBatch = 500

type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]
	lister   BalanceLister
	enqueuer Enqueuer
	logger   *slog.Logger
}

func NewSweepWorker(l BalanceLister, e Enqueuer, logger *slog.Logger) *SweepWorker {
	return &SweepWorker{lister: l, enqueuer: e, logger: logger}
}

// Work queues one reset per user holding a non-zero balance, a page at a
// time.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	batch := job.Args.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}

	after := ""
	queued := 0
	for {
		ids, err := w.lister.UsersWithBalance(ctx, after, batch)
		if err != nil {
			return fmt.Errorf("list users for sweep: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		if err := w.enqueuer.EnqueueResets(ctx, ids); err != nil {
			return fmt.Errorf("enqueue resets: %w", err)
		}
		queued += len(ids)
		after = ids[len(ids)-1]

		if len(ids) < batch {
			break
		}
	}

	w.logger.InfoContext(ctx, "reset sweep queued", "users", queued)
	return nil
}

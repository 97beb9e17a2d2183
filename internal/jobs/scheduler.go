// AngelaMos | 2026
// scheduler.go

package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/habitmoney/habit-ledger/internal/admin"
	"github.com/habitmoney/habit-ledger/internal/config"
)

// Scheduler inserts jobs through a River client that is attached after the
// workers that need it have been built.
type Scheduler struct {
	mu        sync.RWMutex
	client    *river.Client[pgx.Tx]
	batchSize int
}

func (s *Scheduler) attach(c *river.Client[pgx.Tx]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

func (s *Scheduler) riverClient() (*river.Client[pgx.Tx], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, admin.ErrJobsDisabled
	}
	return s.client, nil
}

func (s *Scheduler) EnqueueResets(ctx context.Context, userIDs []string) error {
	client, err := s.riverClient()
	if err != nil {
		return err
	}

	params := make([]river.InsertManyParams, 0, len(userIDs))
	for _, id := range userIDs {
		params = append(params, river.InsertManyParams{
			Args: ResetBalanceArgs{UserID: id},
		})
	}

	if _, err := client.InsertMany(ctx, params); err != nil {
		return fmt.Errorf("insert reset jobs: %w", err)
	}
	return nil
}

// TriggerSweep queues a sweep now, outside the periodic schedule.
func (s *Scheduler) TriggerSweep(ctx context.Context) (int64, error) {
	client, err := s.riverClient()
	if err != nil {
		return 0, err
	}

	res, err := client.Insert(ctx, SweepArgs{BatchSize: s.batchSize}, nil)
	if err != nil {
		return 0, fmt.Errorf("insert sweep job: %w", err)
	}
	return res.Job.ID, nil
}

type Runner struct {
	client    *river.Client[pgx.Tx]
	Scheduler *Scheduler
}

type Ledger interface {
	Resetter
	BalanceLister
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	return nil
}

func NewRunner(
	pool *pgxpool.Pool,
	cfg config.JobsConfig,
	l Ledger,
	logger *slog.Logger,
) (*Runner, error) {
	scheduler := &Scheduler{batchSize: cfg.SweepBatch}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewResetBalanceWorker(l, logger))
	river.AddWorker(workers, NewSweepWorker(l, scheduler, logger))

	periodic := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.ResetInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return SweepArgs{BatchSize: cfg.SweepBatch}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	scheduler.attach(client)

	return &Runner{client: client, Scheduler: scheduler}, nil
}

func (r *Runner) Start(ctx context.Context) error {
	if err := r.client.Start(ctx); err != nil {
		return fmt.Errorf("start river: %w", err)
	}
	return nil
}

func (r *Runner) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := r.client.Stop(stopCtx); err != nil &&
		!errors.Is(err, context.Canceled) {
		return fmt.Errorf("stop river: %w", err)
	}
	return nil
}

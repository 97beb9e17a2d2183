// AngelaMos | 2026
// service.go

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/habitmoney/habit-ledger/internal/core"
)

const (
	resetIDPrefix = "reset_"

	// defaultListLimit applies when UsersWithBalance gets no usable limit.
	defaultListLimit = 500
)

// Deduper remembers request keys so a retried completion is applied once.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type ServiceConfig struct {
	Deduper        Deduper
	Clock          func() time.Time
	Retry          core.RetryPolicy
	IdempotencyTTL time.Duration
	Tracer         trace.Tracer
	Logger         *slog.Logger
}

type Service struct {
	repo   Repository
	dedupe Deduper
	now    func() time.Time
	retry  core.RetryPolicy
	ttl    time.Duration
	tracer trace.Tracer
	logger *slog.Logger
}

func NewService(repo Repository, cfg ServiceConfig) *Service {
	s := &Service{
		repo:   repo,
		dedupe: cfg.Deduper,
		now:    cfg.Clock,
		retry:  cfg.Retry,
		ttl:    cfg.IdempotencyTTL,
		tracer: cfg.Tracer,
		logger: cfg.Logger,
	}

	if s.now == nil {
		s.now = time.Now
	}
	if s.retry.MaxAttempts < 1 {
		s.retry.MaxAttempts = 1
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("ledger")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// RecordCompletion credits value to the user's balance and appends the
// completion to the pending buffer in one transaction. A non-empty
// idempotencyKey that was already used returns core.ErrDuplicateKey and
// changes nothing.
func (s *Service) RecordCompletion(
	ctx context.Context,
	userID, habitID string,
	value decimal.Decimal,
	idempotencyKey string,
) (err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.RecordCompletion",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("habit.id", habitID),
		),
	)
	defer func() { core.EndSpan(span, err) }()

	claimed, err := s.claim(ctx, userID, idempotencyKey)
	if err != nil {
		return err
	}

	err = core.RetryOnConflict(ctx, s.retry, func() error {
		return s.repo.WithinTx(ctx, func(tx Repository) error {
			if err := tx.IncrementBalance(ctx, userID, value); err != nil {
				return err
			}
			// Stamped while holding the user's row, so the buffer's
			// append order and time order agree.
			return tx.AppendPending(ctx, userID, Completion{
				HabitID:     habitID,
				Value:       value,
				CompletedAt: s.stamp(),
			})
		})
	})
	if err != nil {
		if claimed {
			s.release(ctx, userID, idempotencyKey)
		}
		return fmt.Errorf("record completion: %w", err)
	}

	return nil
}

// stamp is the ledger's clock at the precision Postgres stores.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) claim(
	ctx context.Context,
	userID, key string,
) (bool, error) {
	if key == "" || s.dedupe == nil {
		return false, nil
	}

	ok, err := s.dedupe.Claim(ctx, userID+":"+key, s.ttl)
	if err != nil {
		s.logger.WarnContext(ctx, "idempotency check unavailable",
			"user_id", userID,
			"error", err,
		)
		return false, nil
	}
	if !ok {
		return false, fmt.Errorf("completion %q already recorded: %w",
			key, core.ErrDuplicateKey)
	}
	return true, nil
}

func (s *Service) release(ctx context.Context, userID, key string) {
	if err := s.dedupe.Release(ctx, userID+":"+key); err != nil {
		s.logger.WarnContext(ctx, "release idempotency key",
			"user_id", userID,
			"error", err,
		)
	}
}

func (s *Service) Balance(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) Pending(
	ctx context.Context,
	userID string,
) (*PendingBuffer, error) {
	return s.repo.GetPending(ctx, userID)
}

// ResetBalance archives the pending buffer and zeroes the balance. The
// lock, the snapshot and every write happen in one transaction, so a
// concurrent completion lands either in the archive or in the fresh buffer.
// A zero balance is a successful no-op with Reset false.
func (s *Service) ResetBalance(
	ctx context.Context,
	userID string,
) (result *ResetResult, err error) {
	ctx, span := s.tracer.Start(ctx, "ledger.ResetBalance",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer func() { core.EndSpan(span, err) }()

	attempts := 0
	err = core.RetryOnConflict(ctx, s.retry, func() error {
		attempts++
		result = &ResetResult{ArchivedAmount: decimal.Zero}

		return s.repo.WithinTx(ctx, func(tx Repository) error {
			balance, err := tx.LockBalance(ctx, userID)
			if err != nil {
				return err
			}
			if balance.IsZero() {
				return nil
			}

			pending, err := tx.GetPending(ctx, userID)
			if err != nil {
				return err
			}

			resetID := resetIDPrefix + uuid.New().String()

			receipt := &ResetReceipt{
				ID:      resetID,
				UserID:  userID,
				Amount:  balance,
				ResetAt: s.stamp(),
			}
			if err := tx.InsertReceipt(ctx, receipt); err != nil {
				return err
			}

			archive := NewArchiveRecord(userID, resetID, pending.Completions)
			if err := tx.InsertArchive(ctx, archive); err != nil {
				return err
			}

			if err := tx.SetBalance(ctx, userID, decimal.Zero); err != nil {
				return err
			}
			if err := tx.DeletePending(ctx, userID); err != nil {
				return err
			}

			result = &ResetResult{
				ResetID:        resetID,
				ArchivedAmount: balance,
				Reset:          true,
			}
			return nil
		})
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "reset failed",
			"user_id", userID,
			"attempts", attempts,
			"error", err,
		)
		return nil, fmt.Errorf("reset balance: %w", err)
	}

	if !result.Reset {
		s.logger.InfoContext(ctx, "nothing to reset", "user_id", userID)
		return result, nil
	}

	span.SetAttributes(
		attribute.String("reset.id", result.ResetID),
		attribute.String("reset.amount", result.ArchivedAmount.String()),
	)
	s.logger.InfoContext(ctx, "reset completed",
		"user_id", userID,
		"reset_id", result.ResetID,
		"amount", result.ArchivedAmount.String(),
		"attempts", attempts,
		"trace_id", core.TraceIDFromContext(ctx),
	)

	return result, nil
}

// Archive returns the archive written by one reset, or core.ErrNotFound.
func (s *Service) Archive(
	ctx context.Context,
	userID, resetID string,
) (*ArchiveRecord, error) {
	return s.repo.GetArchive(ctx, userID, resetID)
}

// Resets lists the user's reset receipts, newest first.
func (s *Service) Resets(
	ctx context.Context,
	userID string,
) ([]ResetReceipt, error) {
	return s.repo.ListReceipts(ctx, userID)
}

// UsersWithBalance returns up to limit user ids after the given id whose
// balance is not zero. A limit below one means defaultListLimit.
func (s *Service) UsersWithBalance(
	ctx context.Context,
	after string,
	limit int,
) ([]string, error) {
	if limit < 1 {
		limit = defaultListLimit
	}
	return s.repo.ListUsersWithBalance(ctx, after, limit)
}

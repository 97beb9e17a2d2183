// AngelaMos | 2026
// reader.go

package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/habit"
	"github.com/habitmoney/habit-ledger/internal/ledger"
)

// DeletedHabitName stands in for habits that are gone or soft-deleted.
const DeletedHabitName = "deleted habit"

type LedgerReader interface {
	Pending(ctx context.Context, userID string) (*ledger.PendingBuffer, error)
	Archive(ctx context.Context, userID, resetID string) (*ledger.ArchiveRecord, error)
	Resets(ctx context.Context, userID string) ([]ledger.ResetReceipt, error)
}

type HabitLookup interface {
	Get(ctx context.Context, id string) (*habit.Habit, error)
}

type Entry struct {
	HabitID     string
	HabitName   string
	Value       decimal.Decimal
	CompletedAt time.Time
}

type Reader struct {
	ledger LedgerReader
	habits HabitLookup
}

func NewReader(l LedgerReader, h HabitLookup) *Reader {
	return &Reader{ledger: l, habits: h}
}

func (r *Reader) Pending(ctx context.Context, userID string) ([]Entry, error) {
	buf, err := r.ledger.Pending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pending history: %w", err)
	}
	return r.enrich(ctx, buf.Completions)
}

// Archived returns an empty slice when no archive exists for the pair.
func (r *Reader) Archived(
	ctx context.Context,
	userID, resetID string,
) ([]Entry, error) {
	rec, err := r.ledger.Archive(ctx, userID, resetID)
	if errors.Is(err, core.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archived history: %w", err)
	}
	return r.enrich(ctx, rec.Completions)
}

func (r *Reader) Resets(
	ctx context.Context,
	userID string,
) ([]ledger.ResetReceipt, error) {
	return r.ledger.Resets(ctx, userID)
}

func (r *Reader) enrich(
	ctx context.Context,
	completions ledger.Completions,
) ([]Entry, error) {
	names := make(map[string]string)
	entries := make([]Entry, 0, len(completions))

	for _, c := range completions {
		name, ok := names[c.HabitID]
		if !ok {
			var err error
			name, err = r.habitName(ctx, c.HabitID)
			if err != nil {
				return nil, err
			}
			names[c.HabitID] = name
		}

		entries = append(entries, Entry{
			HabitID:     c.HabitID,
			HabitName:   name,
			Value:       c.Value,
			CompletedAt: c.CompletedAt,
		})
	}

	return entries, nil
}

func (r *Reader) habitName(ctx context.Context, habitID string) (string, error) {
	h, err := r.habits.Get(ctx, habitID)
	if errors.Is(err, core.ErrNotFound) {
		return DeletedHabitName, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve habit %s: %w", habitID, err)
	}
	if h.Deleted {
		return DeletedHabitName, nil
	}
	return h.Name, nil
}

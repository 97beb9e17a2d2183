// AngelaMos | 2026
// repository.go

package habit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/core"
)

type Repository interface {
	Create(ctx context.Context, h *Habit) error
	GetByID(ctx context.Context, id string) (*Habit, error)
	ListActiveByUser(ctx context.Context, userID string) ([]Habit, error)
	SoftDelete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// habitRow mirrors the table. deleted is nullable for rows written before
// the column existed; it is resolved to false here and nowhere else.
type habitRow struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Name      string          `db:"name"`
	Value     decimal.Decimal `db:"value"`
	Deleted   sql.NullBool    `db:"deleted"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r habitRow) toHabit() Habit {
	return Habit{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Value:     r.Value,
		Deleted:   r.Deleted.Valid && r.Deleted.Bool,
		CreatedAt: r.CreatedAt,
	}
}

func (r *repository) Create(ctx context.Context, h *Habit) error {
	query := `
		INSERT INTO habits (id, user_id, name, value, deleted)
		VALUES ($1, $2, $3, $4, false)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &h.CreatedAt, query,
		h.ID,
		h.UserID,
		h.Name,
		h.Value,
	)
	if err != nil {
		return fmt.Errorf("create habit: %w", core.ClassifyStoreError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Habit, error) {
	query := `
		SELECT id, user_id, name, value, deleted, created_at
		FROM habits
		WHERE id = $1`

	var row habitRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get habit: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", core.ClassifyStoreError(err))
	}

	h := row.toHabit()
	return &h, nil
}

func (r *repository) ListActiveByUser(
	ctx context.Context,
	userID string,
) ([]Habit, error) {
	query := `
		SELECT id, user_id, name, value, deleted, created_at
		FROM habits
		WHERE user_id = $1 AND deleted IS NOT TRUE
		ORDER BY created_at`

	var rows []habitRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list habits: %w", core.ClassifyStoreError(err))
	}

	habits := make([]Habit, 0, len(rows))
	for _, row := range rows {
		habits = append(habits, row.toHabit())
	}

	return habits, nil
}

// SoftDelete marks the habit deleted. Running it twice, or on an id that
// never existed, is not an error.
func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE habits SET deleted = true WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete habit: %w", core.ClassifyStoreError(err))
	}

	return nil
}

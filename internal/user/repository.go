// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/core"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	SetPremium(ctx context.Context, id string, premium bool) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// userRow resolves the nullable is_premium column to false.
type userRow struct {
	ID        string          `db:"id"`
	Balance   decimal.Decimal `db:"balance"`
	IsPremium sql.NullBool    `db:"is_premium"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r userRow) toUser() User {
	return User{
		ID:        r.ID,
		Balance:   r.Balance,
		IsPremium: r.IsPremium.Valid && r.IsPremium.Bool,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const userColumns = `id, balance, is_premium, created_at, updated_at`

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var row userRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", core.ClassifyStoreError(err))
	}

	u := row.toUser()
	return &u, nil
}

func (r *repository) SetPremium(
	ctx context.Context,
	id string,
	premium bool,
) error {
	query := `
		UPDATE users
		SET is_premium = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, premium)
	if err != nil {
		return fmt.Errorf("set premium: %w", core.ClassifyStoreError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set premium: %w", core.ClassifyStoreError(err))
	}

	if rows == 0 {
		return fmt.Errorf("set premium: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Premium != nil {
		conditions = append(conditions,
			fmt.Sprintf("COALESCE(is_premium, false) = $%d", argIdx))
		args = append(args, *params.Premium)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", core.ClassifyStoreError(err))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", core.ClassifyStoreError(err))
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}

	return users, total, nil
}

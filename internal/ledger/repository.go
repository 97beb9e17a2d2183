// AngelaMos | 2026
// repository.go

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/core"
)

// Repository is the ledger's view of the document store. Methods called on
// the Repository handed to WithinTx's callback share one transaction.
type Repository interface {
	WithinTx(ctx context.Context, fn func(tx Repository) error) error

	IncrementBalance(ctx context.Context, userID string, delta decimal.Decimal) error
	AppendPending(ctx context.Context, userID string, c Completion) error

	// LockBalance reads the balance and holds it against concurrent writers
	// until the surrounding transaction ends. Absent users read as zero.
	LockBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetPending(ctx context.Context, userID string) (*PendingBuffer, error)

	InsertReceipt(ctx context.Context, r *ResetReceipt) error
	InsertArchive(ctx context.Context, a *ArchiveRecord) error
	SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error
	DeletePending(ctx context.Context, userID string) error

	GetArchive(ctx context.Context, userID, resetID string) (*ArchiveRecord, error)
	ListReceipts(ctx context.Context, userID string) ([]ResetReceipt, error)
	ListUsersWithBalance(ctx context.Context, after string, limit int) ([]string, error)
}

type repository struct {
	db   core.DBTX
	root *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, root: db}
}

func (r *repository) WithinTx(
	ctx context.Context,
	fn func(tx Repository) error,
) error {
	if r.root == nil {
		return fn(r)
	}
	return core.InTx(ctx, r.root, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) IncrementBalance(
	ctx context.Context,
	userID string,
	delta decimal.Decimal,
) error {
	query := `
		INSERT INTO users (id, balance)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET balance = users.balance + EXCLUDED.balance,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, userID, delta); err != nil {
		return fmt.Errorf("increment balance: %w", core.ClassifyStoreError(err))
	}
	return nil
}

func (r *repository) AppendPending(
	ctx context.Context,
	userID string,
	c Completion,
) error {
	query := `
		INSERT INTO pending_completions (user_id, completions)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (user_id) DO UPDATE
		SET completions = pending_completions.completions || EXCLUDED.completions,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, userID, Completions{c})
	if err != nil {
		return fmt.Errorf("append completion: %w", core.ClassifyStoreError(err))
	}
	return nil
}

func (r *repository) LockBalance(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	return r.balance(ctx, userID,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`)
}

func (r *repository) GetBalance(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	return r.balance(ctx, userID, `SELECT balance FROM users WHERE id = $1`)
}

func (r *repository) balance(
	ctx context.Context,
	userID, query string,
) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.GetContext(ctx, &balance, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", core.ClassifyStoreError(err))
	}
	return balance, nil
}

func (r *repository) GetPending(
	ctx context.Context,
	userID string,
) (*PendingBuffer, error) {
	query := `SELECT completions FROM pending_completions WHERE user_id = $1`

	buf := &PendingBuffer{UserID: userID, Completions: Completions{}}
	err := r.db.GetContext(ctx, &buf.Completions, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return buf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending: %w", core.ClassifyStoreError(err))
	}
	return buf, nil
}

func (r *repository) InsertReceipt(ctx context.Context, rec *ResetReceipt) error {
	query := `
		INSERT INTO balance_resets (id, user_id, amount, reset_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Amount, rec.ResetAt)
	if err != nil {
		return fmt.Errorf("insert reset receipt: %w", core.ClassifyStoreError(err))
	}
	return nil
}

func (r *repository) InsertArchive(ctx context.Context, a *ArchiveRecord) error {
	query := `
		INSERT INTO completed_habits (id, user_id, reset_id, from_at, to_at, completions)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)`

	_, err := r.db.ExecContext(ctx, query,
		ArchiveKey(a.UserID, a.ResetID),
		a.UserID,
		a.ResetID,
		a.From,
		a.To,
		a.Completions,
	)
	if err != nil {
		return fmt.Errorf("insert archive: %w", core.ClassifyStoreError(err))
	}
	return nil
}

func (r *repository) SetBalance(
	ctx context.Context,
	userID string,
	balance decimal.Decimal,
) error {
	query := `UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID, balance); err != nil {
		return fmt.Errorf("set balance: %w", core.ClassifyStoreError(err))
	}
	return nil
}

func (r *repository) DeletePending(ctx context.Context, userID string) error {
	query := `DELETE FROM pending_completions WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clear pending: %w", core.ClassifyStoreError(err))
	}
	return nil
}

type archiveRow struct {
	UserID      string       `db:"user_id"`
	ResetID     string       `db:"reset_id"`
	FromAt      sql.NullTime `db:"from_at"`
	ToAt        sql.NullTime `db:"to_at"`
	Completions Completions  `db:"completions"`
}

func (row archiveRow) toRecord() *ArchiveRecord {
	rec := &ArchiveRecord{
		UserID:      row.UserID,
		ResetID:     row.ResetID,
		Completions: row.Completions,
	}
	if row.FromAt.Valid {
		rec.From = timePtr(row.FromAt.Time)
	}
	if row.ToAt.Valid {
		rec.To = timePtr(row.ToAt.Time)
	}
	return rec
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func (r *repository) GetArchive(
	ctx context.Context,
	userID, resetID string,
) (*ArchiveRecord, error) {
	query := `
		SELECT user_id, reset_id, from_at, to_at, completions
		FROM completed_habits
		WHERE id = $1`

	var row archiveRow
	err := r.db.GetContext(ctx, &row, query, ArchiveKey(userID, resetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get archive: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get archive: %w", core.ClassifyStoreError(err))
	}
	return row.toRecord(), nil
}

func (r *repository) ListReceipts(
	ctx context.Context,
	userID string,
) ([]ResetReceipt, error) {
	query := `
		SELECT id, user_id, amount, reset_at
		FROM balance_resets
		WHERE user_id = $1
		ORDER BY reset_at DESC`

	receipts := []ResetReceipt{}
	if err := r.db.SelectContext(ctx, &receipts, query, userID); err != nil {
		return nil, fmt.Errorf("list resets: %w", core.ClassifyStoreError(err))
	}
	return receipts, nil
}

// ListUsersWithBalance pages through users holding a non-zero balance in id
// order, starting after the given id.
func (r *repository) ListUsersWithBalance(
	ctx context.Context,
	after string,
	limit int,
) ([]string, error) {
	query := `
		SELECT id FROM users
		WHERE balance <> 0 AND id > $1
		ORDER BY id
		LIMIT $2`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, after, limit); err != nil {
		return nil, fmt.Errorf("list users with balance: %w", core.ClassifyStoreError(err))
	}
	return ids, nil
}

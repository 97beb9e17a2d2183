// AngelaMos | 2026
// ledger.go

package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/ledger"
)

// ledgerRepo operates on the live state, or on tx when it belongs to an
// open transaction. In a transaction mu is already held.
type ledgerRepo struct {
	store *Store
	tx    *state
}

func (r *ledgerRepo) do(ctx context.Context, op string, fn func(st *state) error) error {
	if r.tx != nil {
		if err := r.store.check(ctx, op); err != nil {
			return err
		}
		return fn(r.tx)
	}
	return r.store.run(ctx, op, fn)
}

func (r *ledgerRepo) WithinTx(
	ctx context.Context,
	fn func(tx ledger.Repository) error,
) error {
	if r.tx != nil {
		return fn(r)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.check(ctx, "begin"); err != nil {
		return err
	}

	work := r.store.st.clone()
	if err := fn(&ledgerRepo{store: r.store, tx: work}); err != nil {
		return err
	}

	if err := r.store.check(ctx, "commit"); err != nil {
		return err
	}
	r.store.st = work
	return nil
}

func (r *ledgerRepo) IncrementBalance(
	ctx context.Context,
	userID string,
	delta decimal.Decimal,
) error {
	return r.do(ctx, "IncrementBalance", func(st *state) error {
		u := st.touchUser(userID, r.store.timestamp())
		u.Balance = u.Balance.Add(delta)
		st.users[userID] = u
		return nil
	})
}

func (r *ledgerRepo) AppendPending(
	ctx context.Context,
	userID string,
	c ledger.Completion,
) error {
	return r.do(ctx, "AppendPending", func(st *state) error {
		buf := copyCompletions(st.pending[userID])
		st.pending[userID] = append(buf, c)
		return nil
	})
}

func (r *ledgerRepo) LockBalance(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	return r.balance(ctx, "LockBalance", userID)
}

func (r *ledgerRepo) GetBalance(
	ctx context.Context,
	userID string,
) (decimal.Decimal, error) {
	return r.balance(ctx, "GetBalance", userID)
}

func (r *ledgerRepo) balance(
	ctx context.Context,
	op, userID string,
) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := r.do(ctx, op, func(st *state) error {
		if u, ok := st.users[userID]; ok {
			balance = u.Balance
		}
		return nil
	})
	return balance, err
}

func (r *ledgerRepo) GetPending(
	ctx context.Context,
	userID string,
) (*ledger.PendingBuffer, error) {
	var buf *ledger.PendingBuffer
	err := r.do(ctx, "GetPending", func(st *state) error {
		buf = &ledger.PendingBuffer{
			UserID:      userID,
			Completions: copyCompletions(st.pending[userID]),
		}
		return nil
	})
	return buf, err
}

func (r *ledgerRepo) InsertReceipt(
	ctx context.Context,
	rec *ledger.ResetReceipt,
) error {
	return r.do(ctx, "InsertReceipt", func(st *state) error {
		if _, ok := st.receipts[rec.ID]; ok {
			return fmt.Errorf("insert reset receipt: %w", core.ErrDuplicateKey)
		}
		st.receipts[rec.ID] = *rec
		return nil
	})
}

func (r *ledgerRepo) InsertArchive(
	ctx context.Context,
	a *ledger.ArchiveRecord,
) error {
	return r.do(ctx, "InsertArchive", func(st *state) error {
		key := ledger.ArchiveKey(a.UserID, a.ResetID)
		if _, ok := st.archives[key]; ok {
			return fmt.Errorf("insert archive: %w", core.ErrDuplicateKey)
		}
		rec := *a
		rec.Completions = copyCompletions(a.Completions)
		st.archives[key] = rec
		return nil
	})
}

func (r *ledgerRepo) SetBalance(
	ctx context.Context,
	userID string,
	balance decimal.Decimal,
) error {
	return r.do(ctx, "SetBalance", func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return nil
		}
		u.Balance = balance
		u.UpdatedAt = r.store.timestamp()
		st.users[userID] = u
		return nil
	})
}

func (r *ledgerRepo) DeletePending(ctx context.Context, userID string) error {
	return r.do(ctx, "DeletePending", func(st *state) error {
		delete(st.pending, userID)
		return nil
	})
}

func (r *ledgerRepo) GetArchive(
	ctx context.Context,
	userID, resetID string,
) (*ledger.ArchiveRecord, error) {
	var out *ledger.ArchiveRecord
	err := r.do(ctx, "GetArchive", func(st *state) error {
		rec, ok := st.archives[ledger.ArchiveKey(userID, resetID)]
		if !ok {
			return fmt.Errorf("get archive: %w", core.ErrNotFound)
		}
		rec.Completions = copyCompletions(rec.Completions)
		out = &rec
		return nil
	})
	return out, err
}

func (r *ledgerRepo) ListReceipts(
	ctx context.Context,
	userID string,
) ([]ledger.ResetReceipt, error) {
	receipts := []ledger.ResetReceipt{}
	err := r.do(ctx, "ListReceipts", func(st *state) error {
		for _, rec := range st.receipts {
			if rec.UserID == userID {
				receipts = append(receipts, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(receipts, func(i, j int) bool {
		if receipts[i].ResetAt.Equal(receipts[j].ResetAt) {
			return receipts[i].ID > receipts[j].ID
		}
		return receipts[i].ResetAt.After(receipts[j].ResetAt)
	})
	return receipts, nil
}

func (r *ledgerRepo) ListUsersWithBalance(
	ctx context.Context,
	after string,
	limit int,
) ([]string, error) {
	var ids []string
	err := r.do(ctx, "ListUsersWithBalance", func(st *state) error {
		for id, u := range st.users {
			if id > after && !u.Balance.IsZero() {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids[:min(len(ids), max(limit, 0))], nil
}

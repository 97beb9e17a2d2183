// AngelaMos | 2026
// store.go

// Package memstore keeps the ledger's collections in process memory. A
// transaction works on a private copy of every collection and swaps it in
// on success, so a failed transaction leaves nothing behind.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/habit"
	"github.com/habitmoney/habit-ledger/internal/ledger"
	"github.com/habitmoney/habit-ledger/internal/user"
)

type habitDoc struct {
	habit habit.Habit
	seq   int64
}

type state struct {
	users    map[string]user.User
	habits   map[string]habitDoc
	pending  map[string]ledger.Completions
	receipts map[string]ledger.ResetReceipt
	archives map[string]ledger.ArchiveRecord
	seq      int64
}

func newState() *state {
	return &state{
		users:    make(map[string]user.User),
		habits:   make(map[string]habitDoc),
		pending:  make(map[string]ledger.Completions),
		receipts: make(map[string]ledger.ResetReceipt),
		archives: make(map[string]ledger.ArchiveRecord),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[string]user.User, len(s.users)),
		habits:   make(map[string]habitDoc, len(s.habits)),
		pending:  make(map[string]ledger.Completions, len(s.pending)),
		receipts: make(map[string]ledger.ResetReceipt, len(s.receipts)),
		archives: make(map[string]ledger.ArchiveRecord, len(s.archives)),
		seq:      s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.habits {
		c.habits[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = copyCompletions(v)
	}
	for k, v := range s.receipts {
		c.receipts[k] = v
	}
	for k, v := range s.archives {
		v.Completions = copyCompletions(v.Completions)
		c.archives[k] = v
	}
	return c
}

func copyCompletions(in ledger.Completions) ledger.Completions {
	out := make(ledger.Completions, len(in))
	copy(out, in)
	return out
}

// FaultFunc is consulted before every store operation with the operation's
// name. A non-nil error aborts the operation with that error.
type FaultFunc func(op string) error

type Store struct {
	mu    sync.Mutex
	st    *state
	now   func() time.Time
	fault FaultFunc
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		st:  newState(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) InjectFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) Habits() habit.Repository {
	return &habitRepo{store: s}
}

func (s *Store) Ledger() ledger.Repository {
	return &ledgerRepo{store: s}
}

func (s *Store) Users() user.Repository {
	return &userRepo{store: s}
}

// Ping always succeeds; it lets the store stand in as a health check.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// check must be called with mu held.
func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.fault != nil {
		if err := s.fault(op); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

func (s *Store) run(ctx context.Context, op string, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, op); err != nil {
		return err
	}
	return fn(s.st)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func (s *state) touchUser(id string, at time.Time) user.User {
	u, ok := s.users[id]
	if !ok {
		u = user.User{ID: id, Balance: decimal.Zero, CreatedAt: at}
	}
	u.UpdatedAt = at
	return u
}

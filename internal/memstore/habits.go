// AngelaMos | 2026
// habits.go

package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/habit"
)

type habitRepo struct {
	store *Store
}

func (r *habitRepo) Create(ctx context.Context, h *habit.Habit) error {
	return r.store.run(ctx, "CreateHabit", func(st *state) error {
		if _, ok := st.habits[h.ID]; ok {
			return fmt.Errorf("create habit: %w", core.ErrDuplicateKey)
		}
		h.Deleted = false
		h.CreatedAt = r.store.timestamp()
		st.seq++
		st.habits[h.ID] = habitDoc{habit: *h, seq: st.seq}
		return nil
	})
}

func (r *habitRepo) GetByID(ctx context.Context, id string) (*habit.Habit, error) {
	var out *habit.Habit
	err := r.store.run(ctx, "GetHabit", func(st *state) error {
		doc, ok := st.habits[id]
		if !ok {
			return fmt.Errorf("get habit: %w", core.ErrNotFound)
		}
		h := doc.habit
		out = &h
		return nil
	})
	return out, err
}

func (r *habitRepo) ListActiveByUser(
	ctx context.Context,
	userID string,
) ([]habit.Habit, error) {
	var docs []habitDoc
	err := r.store.run(ctx, "ListHabits", func(st *state) error {
		for _, doc := range st.habits {
			if doc.habit.UserID == userID && !doc.habit.Deleted {
				docs = append(docs, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].seq < docs[j].seq })

	habits := make([]habit.Habit, 0, len(docs))
	for _, doc := range docs {
		habits = append(habits, doc.habit)
	}
	return habits, nil
}

func (r *habitRepo) SoftDelete(ctx context.Context, id string) error {
	return r.store.run(ctx, "DeleteHabit", func(st *state) error {
		doc, ok := st.habits[id]
		if !ok {
			return nil
		}
		doc.habit.Deleted = true
		st.habits[id] = doc
		return nil
	})
}

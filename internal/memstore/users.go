// AngelaMos | 2026
// users.go

package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/habitmoney/habit-ledger/internal/core"
	"github.com/habitmoney/habit-ledger/internal/user"
)

type userRepo struct {
	store *Store
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	var out *user.User
	err := r.store.run(ctx, "GetUser", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("get user: %w", core.ErrNotFound)
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) SetPremium(ctx context.Context, id string, premium bool) error {
	return r.store.run(ctx, "SetPremium", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("set premium: %w", core.ErrNotFound)
		}
		u.IsPremium = premium
		u.UpdatedAt = r.store.timestamp()
		st.users[id] = u
		return nil
	})
}

func (r *userRepo) List(
	ctx context.Context,
	params user.ListUsersParams,
) ([]user.User, int, error) {
	params.Normalize()

	var users []user.User
	err := r.store.run(ctx, "ListUsers", func(st *state) error {
		for _, u := range st.users {
			if params.Premium != nil && u.IsPremium != *params.Premium {
				continue
			}
			users = append(users, u)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	total := len(users)
	start := params.Offset()
	if start >= total {
		return []user.User{}, total, nil
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	return users[start:end], total, nil
}

// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"log/slog"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetPremium flips the subscription flag. The user row must already exist;
// it is created by the first recorded completion.
func (s *Service) SetPremium(ctx context.Context, id string, premium bool) error {
	if err := s.repo.SetPremium(ctx, id, premium); err != nil {
		return err
	}

	slog.InfoContext(ctx, "subscription updated",
		"user_id", id,
		"premium", premium,
	)
	return nil
}

func (s *Service) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

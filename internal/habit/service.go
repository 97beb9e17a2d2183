// AngelaMos | 2026
// service.go

package habit

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new habit. value is taken as given; its sign is the
// caller's business.
func (s *Service) Create(
	ctx context.Context,
	userID, name string,
	value decimal.Decimal,
) (*Habit, error) {
	h := &Habit{
		ID:     uuid.New().String(),
		UserID: userID,
		Name:   name,
		Value:  value,
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return nil, err
	}

	return h, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Habit, error) {
	return s.repo.ListActiveByUser(ctx, userID)
}

// Get returns the habit whether or not it is deleted.
func (s *Service) Get(ctx context.Context, id string) (*Habit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SoftDelete(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

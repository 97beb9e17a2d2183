// AngelaMos | 2026
// dto.go

package habit

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateHabitRequest struct {
	UserID string           `json:"userId" validate:"required,max=128"`
	Name   string           `json:"name"   validate:"required,max=200"`
	Value  *decimal.Decimal `json:"value"  validate:"required"`
}

type CreateHabitResponse struct {
	ID string `json:"id"`
}

type HabitResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Value     decimal.Decimal `json:"value"`
	Deleted   bool            `json:"deleted"`
	CreatedAt time.Time       `json:"createdAt"`
}

func ToHabitResponse(h *Habit) HabitResponse {
	return HabitResponse{
		ID:        h.ID,
		UserID:    h.UserID,
		Name:      h.Name,
		Value:     h.Value,
		Deleted:   h.Deleted,
		CreatedAt: h.CreatedAt,
	}
}

func ToHabitResponseList(habits []Habit) []HabitResponse {
	responses := make([]HabitResponse, 0, len(habits))
	for i := range habits {
		responses = append(responses, ToHabitResponse(&habits[i]))
	}
	return responses
}

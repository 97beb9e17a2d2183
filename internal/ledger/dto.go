// AngelaMos | 2026
// dto.go

package ledger

import (
	"github.com/shopspring/decimal"
)

type CompleteHabitRequest struct {
	UserID  string           `json:"userId"  validate:"required,max=128"`
	HabitID string           `json:"habitId" validate:"required,max=128"`
	Value   *decimal.Decimal `json:"value"   validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type ResetResponse struct {
	Message    string          `json:"message"`
	Reset      bool            `json:"reset"`
	ResetID    string          `json:"resetId,omitempty"`
	OldBalance decimal.Decimal `json:"oldBalance"`
}

func ToResetResponse(r *ResetResult) ResetResponse {
	if !r.Reset {
		return ResetResponse{
			Message:    "balance already zero",
			OldBalance: decimal.Zero,
		}
	}
	return ResetResponse{
		Message:    "reset completed",
		Reset:      true,
		ResetID:    r.ResetID,
		OldBalance: r.ArchivedAmount,
	}
}

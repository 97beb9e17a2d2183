// AngelaMos | 2026
// dto.go

package history

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/habitmoney/habit-ledger/internal/ledger"
)

type EntryResponse struct {
	HabitID     string          `json:"habitId"`
	HabitName   string          `json:"habitName"`
	Value       decimal.Decimal `json:"value"`
	CompletedAt time.Time       `json:"completedAt"`
}

type ResetReceiptResponse struct {
	ID      string          `json:"id"`
	UserID  string          `json:"userId"`
	Amount  decimal.Decimal `json:"amount"`
	ResetAt time.Time       `json:"resetAt"`
}

func ToEntryResponseList(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			HabitID:     e.HabitID,
			HabitName:   e.HabitName,
			Value:       e.Value,
			CompletedAt: e.CompletedAt.UTC(),
		})
	}
	return out
}

func ToResetReceiptResponseList(receipts []ledger.ResetReceipt) []ResetReceiptResponse {
	out := make([]ResetReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, ResetReceiptResponse{
			ID:      r.ID,
			UserID:  r.UserID,
			Amount:  r.Amount,
			ResetAt: r.ResetAt.UTC(),
		})
	}
	return out
}

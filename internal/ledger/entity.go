// AngelaMos | 2026
// entity.go

package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Completion is one credit event. It lives in exactly one place: a user's
// pending buffer or a single archive record.
type Completion struct {
	HabitID     string          `json:"habitId"`
	Value       decimal.Decimal `json:"value"`
	CompletedAt time.Time       `json:"completedAt"`
}

// Completions is stored as a JSONB array in insertion order.
type Completions []Completion

func (c Completions) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Completion(c))
	if err != nil {
		return nil, fmt.Errorf("marshal completions: %w", err)
	}
	return string(b), nil
}

func (c *Completions) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = Completions{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan completions: unsupported type %T", src)
	}

	var out []Completion
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan completions: %w", err)
	}
	if out == nil {
		out = []Completion{}
	}
	*c = out
	return nil
}

func (c Completions) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c {
		total = total.Add(e.Value)
	}
	return total
}

type PendingBuffer struct {
	UserID      string
	Completions Completions
}

type ResetReceipt struct {
	ID      string          `db:"id"`
	UserID  string          `db:"user_id"`
	Amount  decimal.Decimal `db:"amount"`
	ResetAt time.Time       `db:"reset_at"`
}

type ArchiveRecord struct {
	UserID      string
	ResetID     string
	From        *time.Time
	To          *time.Time
	Completions Completions
}

// ResetResult reports the outcome of ResetBalance. Reset is false when the
// balance was already zero and nothing was written.
type ResetResult struct {
	ResetID        string
	ArchivedAmount decimal.Decimal
	Reset          bool
}

func ArchiveKey(userID, resetID string) string {
	return userID + "_" + resetID
}

// NewArchiveRecord takes From and To from the first and last entries as
// stored, without re-sorting.
func NewArchiveRecord(
	userID, resetID string,
	snapshot Completions,
) *ArchiveRecord {
	rec := &ArchiveRecord{
		UserID:      userID,
		ResetID:     resetID,
		Completions: snapshot,
	}
	if rec.Completions == nil {
		rec.Completions = Completions{}
	}

	if n := len(snapshot); n > 0 {
		from := snapshot[0].CompletedAt
		to := snapshot[n-1].CompletedAt
		rec.From = &from
		rec.To = &to
	}

	return rec
}

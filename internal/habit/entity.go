// AngelaMos | 2026
// entity.go

package habit

import (
	"time"

	"github.com/shopspring/decimal"
)

type Habit struct {
	ID        string
	UserID    string
	Name      string
	Value     decimal.Decimal
	Deleted   bool
	CreatedAt time.Time
}

// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the ledger's record of an account holder. The account itself
// lives with the identity provider; this row only carries the balance and
// the subscription flag.
type User struct {
	ID        string
	Balance   decimal.Decimal
	IsPremium bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

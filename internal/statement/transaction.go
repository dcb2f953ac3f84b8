package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a permanent, owner-scoped ledger entry. It is created only
// by the importer and never mutated by the pipeline afterwards.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"created_at"`
}

package extraction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates which way money moved for an extracted row.
type Direction string

const (
	// DirectionCredit is money coming into the account (deposits, refunds)
	DirectionCredit Direction = "credit"
	// DirectionDebit is money leaving the account (charges, purchases)
	DirectionDebit Direction = "debit"
)

// Row is a single normalized transaction row extracted from a statement.
// Amount is always positive with two decimal places; Direction carries
// the sign. Confidence is clamped to [0, 1].
type Row struct {
	Date                time.Time
	Description         string
	OriginalDescription string
	Amount              decimal.Decimal
	Direction           Direction
	Category            string
	Confidence          float64
}

// StatementInfo contains statement-level metadata reported by the provider.
// Zero time values mean the provider could not determine the period.
type StatementInfo struct {
	BankName       string
	AccountType    string
	LastFour       string
	StatementStart time.Time
	StatementEnd   time.Time
}

// Result is a complete extraction from one statement document.
type Result struct {
	Provider string
	Model    string
	Info     StatementInfo
	Rows     []Row
}

// Provider defines the interface for statement extraction backends
type Provider interface {
	// Name returns the provider identifier used for explicit selection
	Name() string

	// Available reports whether the provider is configured and reachable
	Available(ctx context.Context) bool

	// Extract parses a PDF bank statement into transaction rows
	Extract(ctx context.Context, pdfData []byte) (*Result, error)

	// Close releases provider resources
	Close() error
}

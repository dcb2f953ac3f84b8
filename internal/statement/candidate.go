package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// CandidateStatus is the review state of an extracted transaction candidate
type CandidateStatus string

const (
	// CandidatePending awaits a review decision
	CandidatePending CandidateStatus = "PENDING"
	// CandidateApproved is cleared for import
	CandidateApproved CandidateStatus = "APPROVED"
	// CandidateRejected is excluded from import; only re-processing the
	// document can produce a fresh candidate
	CandidateRejected CandidateStatus = "REJECTED"
	// CandidateDuplicate was flagged by the duplicate detector; an explicit
	// approve overrides the flag
	CandidateDuplicate CandidateStatus = "DUPLICATE"
)

// canTransitionTo encodes the legal review transitions. REJECTED is a dead
// end and APPROVED only moves forward into the ledger.
func (s CandidateStatus) canTransitionTo(next CandidateStatus) bool {
	switch s {
	case CandidatePending:
		return next == CandidateApproved || next == CandidateRejected || next == CandidateDuplicate
	case CandidateDuplicate:
		return next == CandidateApproved || next == CandidateRejected
	}
	return false
}

// TransactionType is the money direction of a transaction
type TransactionType string

const (
	// TypeIncome is money into the account
	TypeIncome TransactionType = "INCOME"
	// TypeExpense is money out of the account
	TypeExpense TransactionType = "EXPENSE"
)

// valid reports whether t is a known transaction type
func (t TransactionType) valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// PendingTransaction is an extracted, unconfirmed transaction awaiting a
// review decision. Amount is a positive fixed-point value with two decimal
// places. LedgerTransactionID is set once the importer has materialized a
// ledger row, which is what makes import retries idempotent.
type PendingTransaction struct {
	ID                  string          `json:"id"`
	DocumentID          string          `json:"document_id"`
	OwnerID             string          `json:"owner_id"`
	Date                time.Time       `json:"date"`
	Description         string          `json:"description"`
	OriginalDescription string          `json:"original_description"`
	Amount              decimal.Decimal `json:"amount"`
	Type                TransactionType `json:"type"`
	Category            string          `json:"category,omitempty"`
	UserCategory        string          `json:"user_category,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Confidence          float64         `json:"confidence"`
	Status              CandidateStatus `json:"status"`
	DuplicateOfID       string          `json:"duplicate_of_id,omitempty"`
	LedgerTransactionID string          `json:"ledger_transaction_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

package statement

import "time"

// DocumentStatus is the lifecycle state of an uploaded bank statement
type DocumentStatus string

const (
	// DocumentPending is a freshly uploaded document awaiting extraction
	DocumentPending DocumentStatus = "PENDING"
	// DocumentProcessing means an extraction run is in flight; the status
	// itself is the concurrency guard against double processing
	DocumentProcessing DocumentStatus = "PROCESSING"
	// DocumentProcessed means extraction succeeded and candidates exist
	DocumentProcessed DocumentStatus = "PROCESSED"
	// DocumentFailed means the last extraction attempt failed; retryable
	DocumentFailed DocumentStatus = "FAILED"
	// DocumentImported is terminal: approved candidates are in the ledger
	DocumentImported DocumentStatus = "IMPORTED"
)

// canTransitionTo reports whether the status graph permits moving to next.
// PROCESSED allows re-entry into PROCESSING so a statement can be
// re-extracted before any review decision is made.
func (s DocumentStatus) canTransitionTo(next DocumentStatus) bool {
	switch s {
	case DocumentPending:
		return next == DocumentProcessing
	case DocumentProcessing:
		return next == DocumentProcessed || next == DocumentFailed
	case DocumentFailed:
		return next == DocumentProcessing
	case DocumentProcessed:
		return next == DocumentProcessing || next == DocumentImported
	case DocumentImported:
		return false
	}
	return false
}

// BankDocument represents an uploaded bank statement and its pipeline state
type BankDocument struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"owner_id"`
	OriginalName     string         `json:"original_name"`
	FileRef          string         `json:"file_ref"`
	FileSize         int            `json:"file_size"`
	Status           DocumentStatus `json:"status"`
	AccountRef       string         `json:"account_ref,omitempty"`
	ProviderUsed     string         `json:"provider_used,omitempty"`
	TransactionCount int            `json:"transaction_count"`
	ProcessingError  string         `json:"processing_error,omitempty"`
	StatementStart   time.Time      `json:"statement_start"`
	StatementEnd     time.Time      `json:"statement_end"`
	UploadedAt       time.Time      `json:"uploaded_at"`
	ProcessedAt      time.Time      `json:"processed_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

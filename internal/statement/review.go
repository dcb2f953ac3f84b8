package statement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EditRequest carries the fields a reviewer may change on a PENDING
// candidate. Nil fields are left untouched.
type EditRequest struct {
	Date         *time.Time
	Description  *string
	Amount       *decimal.Decimal
	Type         *TransactionType
	UserCategory *string
	Notes        *string
}

// validate rejects malformed input before any mutation happens
func (r *EditRequest) validate() error {
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if r.Amount != nil {
		if !r.Amount.IsPositive() {
			return &ValidationError{Field: "amount", Reason: "must be positive"}
		}
		if !r.Amount.Equal(r.Amount.Round(2)) {
			return &ValidationError{Field: "amount", Reason: "must have at most two decimal places"}
		}
	}
	if r.Type != nil && !r.Type.valid() {
		return &ValidationError{Field: "type", Reason: "must be INCOME or EXPENSE"}
	}
	if r.Date != nil && r.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must be a valid date"}
	}
	return nil
}

// Edit updates a candidate's fields. Only PENDING candidates are editable;
// the write is conditional on the status still being PENDING, so a
// concurrent decision wins over a stale edit. A prior duplicate check is
// not re-run: the verdict a future check would give can change, but nothing
// is cleared here.
func (s *Service) Edit(ownerID, id string, req EditRequest) (*PendingTransaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	return s.db.TransitionCandidate(ownerID, id, []CandidateStatus{CandidatePending}, CandidatePending, func(c *PendingTransaction) {
		if req.Date != nil {
			c.Date = *req.Date
		}
		if req.Description != nil {
			c.Description = strings.TrimSpace(*req.Description)
		}
		if req.Amount != nil {
			c.Amount = *req.Amount
		}
		if req.Type != nil {
			c.Type = *req.Type
		}
		if req.UserCategory != nil {
			c.UserCategory = *req.UserCategory
		}
		if req.Notes != nil {
			c.Notes = *req.Notes
		}
		c.UpdatedAt = s.timeSource.Now()
	})
}

// Approve clears a candidate for import. Approving a DUPLICATE is the
// explicit manual override; approving a REJECTED candidate is illegal.
func (s *Service) Approve(ownerID, id string) (*PendingTransaction, error) {
	return s.db.TransitionCandidate(ownerID, id, []CandidateStatus{CandidatePending, CandidateDuplicate}, CandidateApproved, func(c *PendingTransaction) {
		c.UpdatedAt = s.timeSource.Now()
	})
}

// Reject excludes a candidate from import
func (s *Service) Reject(ownerID, id string) (*PendingTransaction, error) {
	return s.db.TransitionCandidate(ownerID, id, []CandidateStatus{CandidatePending, CandidateDuplicate}, CandidateRejected, func(c *PendingTransaction) {
		c.UpdatedAt = s.timeSource.Now()
	})
}

// BulkAction is a batch approve or reject
type BulkAction string

const (
	// BulkApprove approves every listed candidate
	BulkApprove BulkAction = "approve"
	// BulkReject rejects every listed candidate
	BulkReject BulkAction = "reject"
)

// BulkResult is the per-candidate outcome of a bulk action
type BulkResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Bulk applies the single-item transition rule to each candidate
// independently and reports a per-id outcome. One illegal transition never
// aborts the rest of the batch.
func (s *Service) Bulk(ownerID string, ids []string, action BulkAction) ([]BulkResult, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "transaction_ids", Reason: "must not be empty"}
	}

	var apply func(ownerID, id string) (*PendingTransaction, error)
	switch action {
	case BulkApprove:
		apply = s.Approve
	case BulkReject:
		apply = s.Reject
	default:
		return nil, &ValidationError{Field: "action", Reason: "must be approve or reject"}
	}

	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		if _, err := apply(ownerID, id); err != nil {
			results = append(results, BulkResult{ID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, OK: true})
	}
	return results, nil
}

// SummaryEntry is a per-status roll-up of a document's candidates
type SummaryEntry struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Summary aggregates a document's candidates by status
type Summary struct {
	DocumentID    string                           `json:"document_id"`
	ByStatus      map[CandidateStatus]SummaryEntry `json:"by_status"`
	ReadyToImport int                              `json:"ready_to_import"`
}

// Summarize builds the review summary for a document
func (s *Service) Summarize(ownerID, documentID string) (*Summary, error) {
	candidates, err := s.ListCandidates(ownerID, documentID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		DocumentID: documentID,
		ByStatus:   make(map[CandidateStatus]SummaryEntry),
	}
	for _, c := range candidates {
		entry := summary.ByStatus[c.Status]
		entry.Count++
		entry.Total = entry.Total.Add(c.Amount)
		summary.ByStatus[c.Status] = entry
		if c.Status == CandidateApproved && c.LedgerTransactionID == "" {
			summary.ReadyToImport++
		}
	}
	return summary, nil
}

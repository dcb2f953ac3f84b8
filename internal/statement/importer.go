package statement

import (
	"log/slog"
)

// ImportResult reports how many ledger rows an import produced
type ImportResult struct {
	ImportedCount int `json:"imported_count"`
}

// Import materializes every currently-APPROVED candidate of a document into
// the ledger and flips the document to IMPORTED. A per-document critical
// section plus the PROCESSED→IMPORTED transition keep concurrent imports
// from double-inserting, and each candidate records the ledger row it
// produced, so a retry after a partial failure only processes the rest.
// Importing an already-IMPORTED document is a no-op success.
func (s *Service) Import(ownerID, documentID string) (*ImportResult, error) {
	mu := s.docLock(documentID)
	mu.Lock()
	defer mu.Unlock()

	doc, err := s.db.GetDocument(ownerID, documentID)
	if err != nil {
		return nil, err
	}

	// Tolerate client retries on an already-imported document
	if doc.Status == DocumentImported {
		return &ImportResult{ImportedCount: 0}, nil
	}
	if doc.Status != DocumentProcessed {
		return nil, &InvalidStateError{Entity: "document", Status: string(doc.Status), Action: "import"}
	}

	candidates, err := s.db.ListCandidates(ownerID, documentID)
	if err != nil {
		return nil, err
	}

	approved := make([]*PendingTransaction, 0, len(candidates))
	for _, c := range candidates {
		if c.Status == CandidateApproved {
			approved = append(approved, c)
		}
	}
	if len(approved) == 0 {
		return nil, ErrNothingToImport
	}

	imported := 0
	for _, c := range approved {
		// Already produced a ledger row on an earlier, partially failed run
		if c.LedgerTransactionID != "" {
			continue
		}

		txn := &Transaction{
			ID:          s.idGenerator.Generate(),
			OwnerID:     ownerID,
			Date:        c.Date,
			Description: c.Description,
			Amount:      c.Amount,
			Type:        c.Type,
			Category:    resolveCategory(c),
			CreatedAt:   s.timeSource.Now(),
		}
		if err := s.db.SaveTransaction(txn); err != nil {
			return nil, &ImportError{Imported: imported, Err: err}
		}

		// Mark the candidate immediately so a retry never re-imports it
		_, err := s.db.TransitionCandidate(ownerID, c.ID, []CandidateStatus{CandidateApproved}, CandidateApproved, func(pt *PendingTransaction) {
			pt.LedgerTransactionID = txn.ID
			pt.UpdatedAt = s.timeSource.Now()
		})
		if err != nil {
			return nil, &ImportError{Imported: imported, Err: err}
		}
		imported++
	}

	_, err = s.db.TransitionDocument(ownerID, documentID, []DocumentStatus{DocumentProcessed}, DocumentImported, func(d *BankDocument) {
		d.UpdatedAt = s.timeSource.Now()
	})
	if err != nil {
		return nil, &ImportError{Imported: imported, Err: err}
	}

	slog.Info("Statement imported", "document_id", documentID, "imported", imported)
	return &ImportResult{ImportedCount: imported}, nil
}

// resolveCategory prefers the reviewer's category over the provider's,
// falling back to Other
func resolveCategory(c *PendingTransaction) string {
	if c.UserCategory != "" {
		return c.UserCategory
	}
	if c.Category != "" {
		return c.Category
	}
	return "Other"
}

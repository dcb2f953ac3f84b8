package statement

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfinn/statement-tracker/internal/extraction"
)

// maxUploadSize caps statement uploads at 10MB
const maxUploadSize = 10 << 20

// defaultProcessTimeout bounds a single extraction run
const defaultProcessTimeout = 3 * time.Minute

// IDGenerator generates unique IDs for pipeline entities
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now().UTC()
}

// ProviderSelector picks an extraction provider by name or availability
type ProviderSelector interface {
	Select(ctx context.Context, name string) (extraction.Provider, error)
	Providers() []extraction.Provider
}

// Service owns the statement ingestion pipeline: upload registry, extraction
// coordination, duplicate detection, review and import.
type Service struct {
	db             DB
	storage        Storage
	selector       ProviderSelector
	idGenerator    IDGenerator
	timeSource     TimeSource
	processTimeout time.Duration

	mu       sync.Mutex
	importMu map[string]*sync.Mutex
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, storage Storage, selector ProviderSelector) *Service {
	return NewServiceWithDeps(db, storage, selector, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, selector ProviderSelector, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:             db,
		storage:        storage,
		selector:       selector,
		idGenerator:    idGen,
		timeSource:     timeSrc,
		processTimeout: defaultProcessTimeout,
		importMu:       make(map[string]*sync.Mutex),
	}
}

// SetProcessTimeout overrides the extraction timeout
func (s *Service) SetProcessTimeout(d time.Duration) {
	s.processTimeout = d
}

// Upload validates and stores a statement PDF and registers a PENDING document
func (s *Service) Upload(ownerID, originalName string, data []byte, contentType, accountRef string) (*BankDocument, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Field: "file", Reason: "file is empty"}
	}
	if len(data) > maxUploadSize {
		return nil, &ValidationError{Field: "file", Reason: "file exceeds the 10MB limit"}
	}
	if !isPDF(data, contentType) {
		return nil, &ValidationError{Field: "file", Reason: "only PDF statements are supported"}
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	fileRef, err := s.storage.Save(fmt.Sprintf("%s.pdf", id), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	doc := &BankDocument{
		ID:           id,
		OwnerID:      ownerID,
		OriginalName: originalName,
		FileRef:      fileRef,
		FileSize:     len(data),
		Status:       DocumentPending,
		AccountRef:   accountRef,
		UploadedAt:   now,
		UpdatedAt:    now,
	}

	if err := s.db.SaveDocument(doc); err != nil {
		s.storage.Delete(fileRef)
		return nil, fmt.Errorf("saving document: %w", err)
	}

	slog.Info("Statement uploaded", "document_id", id, "name", originalName, "size", len(data))
	return doc, nil
}

// isPDF accepts a declared PDF content type or the PDF magic bytes
func isPDF(data []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// ProcessResult reports the outcome of a processing run
type ProcessResult struct {
	Status           DocumentStatus `json:"status"`
	TransactionCount int            `json:"transaction_count"`
	Provider         string         `json:"provider"`
}

// Process runs extraction on an uploaded document. The PROCESSING status is
// the concurrency guard: the conditional transition into it rejects a second
// concurrent run, and the provider call itself holds no locks. The run
// always concludes in PROCESSED or FAILED.
func (s *Service) Process(ctx context.Context, ownerID, id, providerHint string) (*ProcessResult, error) {
	doc, err := s.db.GetDocument(ownerID, id)
	if err != nil {
		return nil, err
	}

	switch doc.Status {
	case DocumentProcessing, DocumentImported:
		return nil, &InvalidStateError{Entity: "document", Status: string(doc.Status), Action: "process"}
	case DocumentProcessed:
		// Re-processing is only legal while no candidate has been decided;
		// user decisions are never silently discarded
		candidates, err := s.db.ListCandidates(ownerID, id)
		if err != nil {
			return nil, fmt.Errorf("listing candidates: %w", err)
		}
		for _, c := range candidates {
			if c.Status != CandidatePending {
				return nil, &InvalidStateError{Entity: "document", Status: string(doc.Status), Action: "re-process with reviewed transactions"}
			}
		}
	}

	doc, err = s.db.TransitionDocument(ownerID, id, []DocumentStatus{DocumentPending, DocumentFailed, DocumentProcessed}, DocumentProcessing, func(d *BankDocument) {
		d.UpdatedAt = s.timeSource.Now()
	})
	if err != nil {
		return nil, err
	}

	data, err := s.storage.Get(doc.FileRef)
	if err != nil {
		s.markFailed(ownerID, id, fmt.Sprintf("reading stored file: %v", err))
		return nil, fmt.Errorf("reading stored file: %w", err)
	}

	provider, err := s.selector.Select(ctx, providerHint)
	if err != nil {
		s.markFailed(ownerID, id, err.Error())
		return nil, &ProviderError{Retryable: true, Err: err}
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.processTimeout)
	defer cancel()

	slog.Info("Extracting statement", "document_id", id, "provider", provider.Name())
	result, err := provider.Extract(extractCtx, data)
	if err != nil {
		slog.Error("Extraction failed", "document_id", id, "provider", provider.Name(), "error", err)
		s.markFailed(ownerID, id, err.Error())
		return nil, &ProviderError{Provider: provider.Name(), Retryable: true, Err: err}
	}
	if len(result.Rows) == 0 {
		err := fmt.Errorf("provider returned no transactions")
		s.markFailed(ownerID, id, err.Error())
		return nil, &ProviderError{Provider: provider.Name(), Retryable: true, Err: err}
	}

	// Only now that extraction succeeded is the previous un-reviewed set
	// discarded; a failed run leaves earlier candidates untouched
	if err := s.db.DeleteCandidates(ownerID, id, []CandidateStatus{CandidatePending}); err != nil {
		s.markFailed(ownerID, id, fmt.Sprintf("clearing previous candidates: %v", err))
		return nil, fmt.Errorf("clearing previous candidates: %w", err)
	}

	now := s.timeSource.Now()
	candidates := make([]*PendingTransaction, 0, len(result.Rows))
	for _, row := range result.Rows {
		candidates = append(candidates, s.candidateFromRow(doc, row, now))
	}
	if err := s.db.SaveCandidates(candidates); err != nil {
		s.markFailed(ownerID, id, fmt.Sprintf("saving candidates: %v", err))
		return nil, fmt.Errorf("saving candidates: %w", err)
	}

	doc, err = s.db.TransitionDocument(ownerID, id, []DocumentStatus{DocumentProcessing}, DocumentProcessed, func(d *BankDocument) {
		d.TransactionCount = len(candidates)
		d.ProviderUsed = result.Provider
		d.ProcessingError = ""
		d.StatementStart = result.Info.StatementStart
		d.StatementEnd = result.Info.StatementEnd
		d.ProcessedAt = now
		d.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Statement processed", "document_id", id, "provider", result.Provider, "transactions", len(candidates))
	return &ProcessResult{
		Status:           doc.Status,
		TransactionCount: doc.TransactionCount,
		Provider:         doc.ProviderUsed,
	}, nil
}

// markFailed concludes a processing run in FAILED, recording the error
func (s *Service) markFailed(ownerID, id, message string) {
	_, err := s.db.TransitionDocument(ownerID, id, []DocumentStatus{DocumentProcessing}, DocumentFailed, func(d *BankDocument) {
		d.ProcessingError = message
		d.ProcessedAt = s.timeSource.Now()
		d.UpdatedAt = s.timeSource.Now()
	})
	if err != nil {
		slog.Error("Failed to mark document as failed", "document_id", id, "error", err)
	}
}

// candidateFromRow maps a normalized extraction row onto a PENDING candidate
func (s *Service) candidateFromRow(doc *BankDocument, row extraction.Row, now time.Time) *PendingTransaction {
	txnType := TypeExpense
	if row.Direction == extraction.DirectionCredit {
		txnType = TypeIncome
	}

	return &PendingTransaction{
		ID:                  s.idGenerator.Generate(),
		DocumentID:          doc.ID,
		OwnerID:             doc.OwnerID,
		Date:                row.Date,
		Description:         row.Description,
		OriginalDescription: row.OriginalDescription,
		Amount:              row.Amount,
		Type:                txnType,
		Category:            row.Category,
		Confidence:          row.Confidence,
		Status:              CandidatePending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// GetDocument retrieves a document by ID
func (s *Service) GetDocument(ownerID, id string) (*BankDocument, error) {
	return s.db.GetDocument(ownerID, id)
}

// ListDocuments returns all documents of an owner
func (s *Service) ListDocuments(ownerID string) ([]*BankDocument, error) {
	return s.db.ListDocuments(ownerID)
}

// ListCandidates returns a document's extracted candidates
func (s *Service) ListCandidates(ownerID, documentID string) ([]*PendingTransaction, error) {
	if _, err := s.db.GetDocument(ownerID, documentID); err != nil {
		return nil, err
	}
	return s.db.ListCandidates(ownerID, documentID)
}

// Delete removes a document, its stored file and its candidates. Ledger
// rows produced by earlier imports are never touched.
func (s *Service) Delete(ownerID, id string) error {
	doc, err := s.db.GetDocument(ownerID, id)
	if err != nil {
		return err
	}
	if doc.Status == DocumentProcessing {
		return &InvalidStateError{Entity: "document", Status: string(doc.Status), Action: "delete"}
	}

	if err := s.storage.Delete(doc.FileRef); err != nil {
		slog.Warn("Failed to delete stored file", "file_ref", doc.FileRef, "error", err)
	}
	if err := s.db.DeleteCandidates(ownerID, id, nil); err != nil {
		return fmt.Errorf("deleting candidates: %w", err)
	}
	if err := s.db.DeleteDocument(ownerID, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ProviderInfo describes a configured extraction provider
type ProviderInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// ListProviders reports the configured providers and their live availability
func (s *Service) ListProviders(ctx context.Context) []ProviderInfo {
	providers := s.selector.Providers()
	infos := make([]ProviderInfo, 0, len(providers))
	for _, p := range providers {
		infos = append(infos, ProviderInfo{Name: p.Name(), Available: p.Available(ctx)})
	}
	return infos
}

// docLock returns the per-document import mutex
func (s *Service) docLock(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.importMu[documentID]
	if !ok {
		mu = &sync.Mutex{}
		s.importMu[documentID] = mu
	}
	return mu
}

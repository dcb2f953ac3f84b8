package statement

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// writeJSON encodes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps pipeline errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	setCORSHeaders(w)

	var (
		validationErr   *ValidationError
		invalidStateErr *InvalidStateError
		providerErr     *ProviderError
		importErr       *ImportError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNothingToImport):
		status = http.StatusBadRequest
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &invalidStateErr):
		status = http.StatusConflict
	case errors.As(err, &providerErr):
		status = http.StatusBadGateway
	case errors.As(err, &importErr):
		status = http.StatusInternalServerError
	default:
		slog.Error("Internal error", "error", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleUploadDocument accepts a multipart statement upload
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, ownerID string) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, &ValidationError{Field: "file", Reason: "could not parse upload form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, &ValidationError{Field: "file", Reason: "no file provided"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, err)
		return
	}

	doc, err := s.service.Upload(ownerID, header.Filename, data, header.Header.Get("Content-Type"), r.FormValue("account_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// handleListDocuments returns all of the owner's documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, ownerID string) {
	docs, err := s.service.ListDocuments(ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument returns a document and its candidates
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request, ownerID string) {
	id := r.PathValue("id")

	doc, err := s.service.GetDocument(ownerID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	candidates, err := s.service.ListCandidates(ownerID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document":     doc,
		"transactions": candidates,
	})
}

// handleDeleteDocument removes a document and its candidates
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request, ownerID string) {
	if err := s.service.Delete(ownerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleProcessDocument runs extraction on an uploaded document
func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req struct {
		Provider string `json:"provider"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, &ValidationError{Field: "body", Reason: "invalid JSON"})
			return
		}
	}

	result, err := s.service.Process(r.Context(), ownerID, r.PathValue("id"), req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListCandidates returns a document's extracted candidates
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request, ownerID string) {
	candidates, err := s.service.ListCandidates(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// handleCheckDuplicates runs the duplicate detector over a document
func (s *Server) handleCheckDuplicates(w http.ResponseWriter, r *http.Request, ownerID string) {
	report, err := s.service.CheckDuplicates(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleImport imports a document's approved candidates into the ledger
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, ownerID string) {
	result, err := s.service.Import(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSummary returns the per-status review roll-up for a document
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, ownerID string) {
	summary, err := s.service.Summarize(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// editRequestBody is the wire form of an edit
type editRequestBody struct {
	Date         *string      `json:"date"`
	Description  *string      `json:"description"`
	Amount       *json.Number `json:"amount"`
	Type         *string      `json:"type"`
	UserCategory *string      `json:"user_category"`
	Notes        *string      `json:"notes"`
}

// toEditRequest converts the wire form, reporting malformed fields
func (b *editRequestBody) toEditRequest() (EditRequest, error) {
	req := EditRequest{
		Description:  b.Description,
		UserCategory: b.UserCategory,
		Notes:        b.Notes,
	}

	if b.Date != nil {
		date, err := time.Parse("2006-01-02", *b.Date)
		if err != nil {
			return req, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
		req.Date = &date
	}
	if b.Amount != nil {
		amount, err := decimal.NewFromString(b.Amount.String())
		if err != nil {
			return req, &ValidationError{Field: "amount", Reason: "must be a number"}
		}
		req.Amount = &amount
	}
	if b.Type != nil {
		txnType := TransactionType(*b.Type)
		req.Type = &txnType
	}
	return req, nil
}

// handleEdit updates a PENDING candidate
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, ownerID string) {
	var body editRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, &ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	req, err := body.toEditRequest()
	if err != nil {
		writeError(w, err)
		return
	}

	candidate, err := s.service.Edit(ownerID, r.PathValue("id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// handleApprove approves a candidate for import
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, ownerID string) {
	candidate, err := s.service.Approve(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// handleReject rejects a candidate
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, ownerID string) {
	candidate, err := s.service.Reject(ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// handleBulkAction applies approve or reject to a batch of candidates
func (s *Server) handleBulkAction(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req struct {
		TransactionIDs []string `json:"transaction_ids"`
		Action         string   `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}

	results, err := s.service.Bulk(ownerID, req.TransactionIDs, BulkAction(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// handleListProviders reports configured providers and availability
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request, ownerID string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": s.service.ListProviders(r.Context()),
	})
}

package statement

import (
	"errors"
	"fmt"
)

// ErrNotFound covers unknown IDs and owner mismatches alike, so a caller
// cannot distinguish another owner's document from a missing one
var ErrNotFound = errors.New("not found")

// ErrNothingToImport is returned when an import finds no approved candidates
var ErrNothingToImport = errors.New("no approved transactions to import")

// InvalidStateError is an illegal lifecycle transition. It is always
// side-effect-free: the entity is untouched.
type InvalidStateError struct {
	Entity string
	Status string
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %s", e.Action, e.Entity, e.Status)
}

// ValidationError is malformed input, rejected before any mutation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProviderError is an extraction failure. The document has been marked
// FAILED; Retryable signals the caller may request processing again.
type ProviderError struct {
	Provider  string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed (provider %s): %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ImportError is a mid-batch ledger write failure. Candidates written before
// the failure are individually marked, so a retry only processes the rest.
type ImportError struct {
	Imported int
	Err      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed after %d transactions: %v", e.Imported, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

package statement

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	documentBucketName    = "documents"
	candidateBucketName   = "candidates"
	transactionBucketName = "transactions"
)

// DB defines the interface for pipeline persistence. All reads are
// owner-scoped: an owner mismatch behaves exactly like a missing record.
type DB interface {
	// SaveDocument inserts or replaces a document
	SaveDocument(doc *BankDocument) error

	// GetDocument retrieves a document by ID
	GetDocument(ownerID, id string) (*BankDocument, error)

	// ListDocuments returns all documents of an owner, newest upload first
	ListDocuments(ownerID string) ([]*BankDocument, error)

	// DeleteDocument removes a document record
	DeleteDocument(ownerID, id string) error

	// TransitionDocument conditionally moves a document to a new status.
	// The move only happens if the current status is one of from and the
	// status graph permits it; mutate, when non-nil, is applied to the
	// document inside the same transaction.
	TransitionDocument(ownerID, id string, from []DocumentStatus, to DocumentStatus, mutate func(*BankDocument)) (*BankDocument, error)

	// SaveCandidates inserts or replaces a batch of candidates
	SaveCandidates(candidates []*PendingTransaction) error

	// GetCandidate retrieves a candidate by ID
	GetCandidate(ownerID, id string) (*PendingTransaction, error)

	// ListCandidates returns a document's candidates ordered by date
	ListCandidates(ownerID, documentID string) ([]*PendingTransaction, error)

	// DeleteCandidates removes a document's candidates. With statuses, only
	// candidates in one of the given statuses are removed; nil removes all.
	DeleteCandidates(ownerID, documentID string, statuses []CandidateStatus) error

	// TransitionCandidate conditionally moves a candidate to a new status,
	// failing if the status changed since the caller read it. from lists
	// the statuses the move is legal from; mutate is applied inside the
	// same transaction.
	TransitionCandidate(ownerID, id string, from []CandidateStatus, to CandidateStatus, mutate func(*PendingTransaction)) (*PendingTransaction, error)

	// SaveTransaction appends a ledger transaction
	SaveTransaction(txn *Transaction) error

	// QueryTransactions returns an owner's ledger entries with dates inside
	// [from, to]. Zero bounds are open-ended.
	QueryTransactions(ownerID string, from, to time.Time) ([]*Transaction, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{documentBucketName, candidateBucketName, transactionBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveDocument inserts or replaces a document
func (b *BoltDB) SaveDocument(doc *BankDocument) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket([]byte(documentBucketName)), doc.ID, doc)
	})
}

// GetDocument retrieves a document by ID
func (b *BoltDB) GetDocument(ownerID, id string) (*BankDocument, error) {
	var doc *BankDocument
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		doc, err = getDocument(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents of an owner, newest upload first
func (b *BoltDB) ListDocuments(ownerID string) ([]*BankDocument, error) {
	docs := make([]*BankDocument, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(documentBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var doc BankDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("unmarshaling document: %w", err)
			}
			if doc.OwnerID == ownerID {
				docs = append(docs, &doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

// DeleteDocument removes a document record
func (b *BoltDB) DeleteDocument(ownerID, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := getDocument(tx, ownerID, id); err != nil {
			return err
		}
		return tx.Bucket([]byte(documentBucketName)).Delete([]byte(id))
	})
}

// TransitionDocument conditionally moves a document to a new status
func (b *BoltDB) TransitionDocument(ownerID, id string, from []DocumentStatus, to DocumentStatus, mutate func(*BankDocument)) (*BankDocument, error) {
	var doc *BankDocument
	err := b.db.Update(func(tx *bbolt.Tx) error {
		var err error
		doc, err = getDocument(tx, ownerID, id)
		if err != nil {
			return err
		}

		allowed := false
		for _, s := range from {
			if doc.Status == s {
				allowed = true
				break
			}
		}
		if !allowed || !doc.Status.canTransitionTo(to) {
			return &InvalidStateError{Entity: "document", Status: string(doc.Status), Action: fmt.Sprintf("move to %s", to)}
		}

		doc.Status = to
		if mutate != nil {
			mutate(doc)
		}
		return putJSON(tx.Bucket([]byte(documentBucketName)), doc.ID, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveCandidates inserts or replaces a batch of candidates
func (b *BoltDB) SaveCandidates(candidates []*PendingTransaction) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(candidateBucketName))
		for _, c := range candidates {
			if err := putJSON(bucket, c.ID, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCandidate retrieves a candidate by ID
func (b *BoltDB) GetCandidate(ownerID, id string) (*PendingTransaction, error) {
	var candidate *PendingTransaction
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		candidate, err = getCandidate(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// ListCandidates returns a document's candidates ordered by date
func (b *BoltDB) ListCandidates(ownerID, documentID string) ([]*PendingTransaction, error) {
	candidates := make([]*PendingTransaction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(candidateBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var c PendingTransaction
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("unmarshaling candidate: %w", err)
			}
			if c.OwnerID == ownerID && c.DocumentID == documentID {
				candidates = append(candidates, &c)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].Date.Equal(candidates[j].Date) {
			return candidates[i].Date.Before(candidates[j].Date)
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates, nil
}

// DeleteCandidates removes a document's candidates, optionally filtered by status
func (b *BoltDB) DeleteCandidates(ownerID, documentID string, statuses []CandidateStatus) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(candidateBucketName))

		var doomed [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var c PendingTransaction
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("unmarshaling candidate: %w", err)
			}
			if c.OwnerID != ownerID || c.DocumentID != documentID {
				return nil
			}
			if statuses != nil && !statusIn(c.Status, statuses) {
				return nil
			}
			key := make([]byte, len(k))
			copy(key, k)
			doomed = append(doomed, key)
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range doomed {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// TransitionCandidate conditionally moves a candidate to a new status
func (b *BoltDB) TransitionCandidate(ownerID, id string, from []CandidateStatus, to CandidateStatus, mutate func(*PendingTransaction)) (*PendingTransaction, error) {
	var candidate *PendingTransaction
	err := b.db.Update(func(tx *bbolt.Tx) error {
		var err error
		candidate, err = getCandidate(tx, ownerID, id)
		if err != nil {
			return err
		}

		if !statusIn(candidate.Status, from) {
			return &InvalidStateError{Entity: "transaction", Status: string(candidate.Status), Action: fmt.Sprintf("move to %s", to)}
		}
		// Same-status writes are field updates, not transitions
		if candidate.Status != to && !candidate.Status.canTransitionTo(to) {
			return &InvalidStateError{Entity: "transaction", Status: string(candidate.Status), Action: fmt.Sprintf("move to %s", to)}
		}

		candidate.Status = to
		if mutate != nil {
			mutate(candidate)
		}
		return putJSON(tx.Bucket([]byte(candidateBucketName)), candidate.ID, candidate)
	})
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// SaveTransaction appends a ledger transaction
func (b *BoltDB) SaveTransaction(txn *Transaction) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket([]byte(transactionBucketName)), txn.ID, txn)
	})
}

// QueryTransactions returns an owner's ledger entries within a date range
func (b *BoltDB) QueryTransactions(ownerID string, from, to time.Time) ([]*Transaction, error) {
	txns := make([]*Transaction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(transactionBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var txn Transaction
			if err := json.Unmarshal(v, &txn); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			if txn.OwnerID != ownerID {
				return nil
			}
			if !from.IsZero() && txn.Date.Before(from) {
				return nil
			}
			if !to.IsZero() && txn.Date.After(to) {
				return nil
			}
			txns = append(txns, &txn)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].Date.Before(txns[j].Date)
	})
	return txns, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

func putJSON(bucket *bbolt.Bucket, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return bucket.Put([]byte(key), data)
}

func getDocument(tx *bbolt.Tx, ownerID, id string) (*BankDocument, error) {
	data := tx.Bucket([]byte(documentBucketName)).Get([]byte(id))
	if data == nil {
		return nil, ErrNotFound
	}
	var doc BankDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling document: %w", err)
	}
	if doc.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func getCandidate(tx *bbolt.Tx, ownerID, id string) (*PendingTransaction, error) {
	data := tx.Bucket([]byte(candidateBucketName)).Get([]byte(id))
	if data == nil {
		return nil, ErrNotFound
	}
	var c PendingTransaction
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling candidate: %w", err)
	}
	if c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func statusIn(s CandidateStatus, set []CandidateStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

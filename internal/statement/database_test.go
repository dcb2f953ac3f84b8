package statement

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	newDocument := func(id, ownerID string, status DocumentStatus) *BankDocument {
		return &BankDocument{
			ID:           id,
			OwnerID:      ownerID,
			OriginalName: "march.pdf",
			FileRef:      id + ".pdf",
			FileSize:     1024,
			Status:       status,
			UploadedAt:   time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:    time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	newCandidate := func(id, ownerID, documentID string, status CandidateStatus, date time.Time) *PendingTransaction {
		return &PendingTransaction{
			ID:          id,
			DocumentID:  documentID,
			OwnerID:     ownerID,
			Date:        date,
			Description: "Trader Joes",
			Amount:      decimal.NewFromFloat(84.12),
			Type:        TypeExpense,
			Status:      status,
			CreatedAt:   time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveDocument and GetDocument", func() {
		It("should round-trip a document", func() {
			doc := newDocument("doc-1", "owner-1", DocumentPending)
			Expect(db.SaveDocument(doc)).To(Succeed())

			saved, err := db.GetDocument("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.ID).To(Equal("doc-1"))
			Expect(saved.OriginalName).To(Equal("march.pdf"))
			Expect(saved.Status).To(Equal(DocumentPending))
		})

		It("should return ErrNotFound for an unknown id", func() {
			_, err := db.GetDocument("owner-1", "missing")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should return ErrNotFound for another owner's document", func() {
			Expect(db.SaveDocument(newDocument("doc-1", "owner-1", DocumentPending))).To(Succeed())
			_, err := db.GetDocument("owner-2", "doc-1")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListDocuments", func() {
		BeforeEach(func() {
			older := newDocument("doc-1", "owner-1", DocumentPending)
			older.UploadedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			newer := newDocument("doc-2", "owner-1", DocumentPending)
			newer.UploadedAt = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
			other := newDocument("doc-3", "owner-2", DocumentPending)

			for _, doc := range []*BankDocument{older, newer, other} {
				Expect(db.SaveDocument(doc)).To(Succeed())
			}
		})

		It("should return only the owner's documents, newest first", func() {
			docs, err := db.ListDocuments("owner-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
			Expect(docs[0].ID).To(Equal("doc-2"))
			Expect(docs[1].ID).To(Equal("doc-1"))
		})

		It("should return an empty list for an unknown owner", func() {
			docs, err := db.ListDocuments("owner-9")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})

	Describe("DeleteDocument", func() {
		BeforeEach(func() {
			Expect(db.SaveDocument(newDocument("doc-1", "owner-1", DocumentPending))).To(Succeed())
		})

		It("should delete the document", func() {
			Expect(db.DeleteDocument("owner-1", "doc-1")).To(Succeed())
			_, err := db.GetDocument("owner-1", "doc-1")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should refuse to delete another owner's document", func() {
			Expect(db.DeleteDocument("owner-2", "doc-1")).To(MatchError(ErrNotFound))
			_, err := db.GetDocument("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("TransitionDocument", func() {
		BeforeEach(func() {
			Expect(db.SaveDocument(newDocument("doc-1", "owner-1", DocumentPending))).To(Succeed())
		})

		It("should move the document and apply the mutation", func() {
			updated := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
			doc, err := db.TransitionDocument("owner-1", "doc-1", []DocumentStatus{DocumentPending}, DocumentProcessing, func(d *BankDocument) {
				d.UpdatedAt = updated
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Status).To(Equal(DocumentProcessing))
			Expect(doc.UpdatedAt).To(Equal(updated))

			saved, err := db.GetDocument("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Status).To(Equal(DocumentProcessing))
		})

		It("should fail when the current status is not in the from set", func() {
			_, err := db.TransitionDocument("owner-1", "doc-1", []DocumentStatus{DocumentFailed}, DocumentProcessing, nil)
			var invalidStateErr *InvalidStateError
			Expect(errors.As(err, &invalidStateErr)).To(BeTrue())
		})

		It("should fail when the status graph forbids the move", func() {
			_, err := db.TransitionDocument("owner-1", "doc-1", []DocumentStatus{DocumentPending}, DocumentImported, nil)
			var invalidStateErr *InvalidStateError
			Expect(errors.As(err, &invalidStateErr)).To(BeTrue())
		})

		It("should leave the document untouched on a failed transition", func() {
			_, err := db.TransitionDocument("owner-1", "doc-1", []DocumentStatus{DocumentPending}, DocumentImported, func(d *BankDocument) {
				d.OriginalName = "mutated.pdf"
			})
			Expect(err).To(HaveOccurred())

			saved, getErr := db.GetDocument("owner-1", "doc-1")
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.Status).To(Equal(DocumentPending))
			Expect(saved.OriginalName).To(Equal("march.pdf"))
		})

		It("should return ErrNotFound for another owner's document", func() {
			_, err := db.TransitionDocument("owner-2", "doc-1", []DocumentStatus{DocumentPending}, DocumentProcessing, nil)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("SaveCandidates and ListCandidates", func() {
		BeforeEach(func() {
			Expect(db.SaveCandidates([]*PendingTransaction{
				newCandidate("cand-2", "owner-1", "doc-1", CandidatePending, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
				newCandidate("cand-1", "owner-1", "doc-1", CandidatePending, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
				newCandidate("cand-3", "owner-1", "doc-2", CandidatePending, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
				newCandidate("cand-4", "owner-2", "doc-1", CandidatePending, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
			})).To(Succeed())
		})

		It("should list a document's candidates ordered by date", func() {
			candidates, err := db.ListCandidates("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(2))
			Expect(candidates[0].ID).To(Equal("cand-1"))
			Expect(candidates[1].ID).To(Equal("cand-2"))
		})

		It("should not leak another owner's candidates", func() {
			candidates, err := db.ListCandidates("owner-2", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(1))
			Expect(candidates[0].ID).To(Equal("cand-4"))
		})

		It("should preserve decimal amounts across the round trip", func() {
			candidates, err := db.ListCandidates("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates[0].Amount.Equal(decimal.NewFromFloat(84.12))).To(BeTrue())
		})
	})

	Describe("GetCandidate", func() {
		BeforeEach(func() {
			Expect(db.SaveCandidates([]*PendingTransaction{
				newCandidate("cand-1", "owner-1", "doc-1", CandidatePending, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
			})).To(Succeed())
		})

		It("should return the candidate", func() {
			c, err := db.GetCandidate("owner-1", "cand-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Description).To(Equal("Trader Joes"))
		})

		It("should return ErrNotFound for another owner", func() {
			_, err := db.GetCandidate("owner-2", "cand-1")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("DeleteCandidates", func() {
		BeforeEach(func() {
			pending := newCandidate("cand-1", "owner-1", "doc-1", CandidatePending, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
			approved := newCandidate("cand-2", "owner-1", "doc-1", CandidateApproved, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
			other := newCandidate("cand-3", "owner-1", "doc-2", CandidatePending, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
			Expect(db.SaveCandidates([]*PendingTransaction{pending, approved, other})).To(Succeed())
		})

		It("should delete only candidates in the given statuses", func() {
			Expect(db.DeleteCandidates("owner-1", "doc-1", []CandidateStatus{CandidatePending})).To(Succeed())

			candidates, err := db.ListCandidates("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(1))
			Expect(candidates[0].ID).To(Equal("cand-2"))
		})

		It("should delete all candidates when no statuses are given", func() {
			Expect(db.DeleteCandidates("owner-1", "doc-1", nil)).To(Succeed())

			candidates, err := db.ListCandidates("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(BeEmpty())
		})

		It("should not touch other documents", func() {
			Expect(db.DeleteCandidates("owner-1", "doc-1", nil)).To(Succeed())

			candidates, err := db.ListCandidates("owner-1", "doc-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(1))
		})
	})

	Describe("TransitionCandidate", func() {
		BeforeEach(func() {
			Expect(db.SaveCandidates([]*PendingTransaction{
				newCandidate("cand-1", "owner-1", "doc-1", CandidatePending, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
			})).To(Succeed())
		})

		It("should move the candidate and apply the mutation", func() {
			c, err := db.TransitionCandidate("owner-1", "cand-1", []CandidateStatus{CandidatePending}, CandidateDuplicate, func(pt *PendingTransaction) {
				pt.DuplicateOfID = "txn-1"
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(CandidateDuplicate))
			Expect(c.DuplicateOfID).To(Equal("txn-1"))
		})

		It("should allow a same-status write as a field update", func() {
			c, err := db.TransitionCandidate("owner-1", "cand-1", []CandidateStatus{CandidatePending}, CandidatePending, func(pt *PendingTransaction) {
				pt.Notes = "checked"
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(CandidatePending))
			Expect(c.Notes).To(Equal("checked"))
		})

		It("should fail when the status changed since the caller read it", func() {
			_, err := db.TransitionCandidate("owner-1", "cand-1", []CandidateStatus{CandidatePending}, CandidateApproved, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = db.TransitionCandidate("owner-1", "cand-1", []CandidateStatus{CandidatePending}, CandidateRejected, nil)
			var invalidStateErr *InvalidStateError
			Expect(errors.As(err, &invalidStateErr)).To(BeTrue())
		})

		It("should fail for an illegal transition", func() {
			_, err := db.TransitionCandidate("owner-1", "cand-1", []CandidateStatus{CandidatePending}, CandidateApproved, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = db.TransitionCandidate("owner-1", "cand-1", []CandidateStatus{CandidateApproved}, CandidateRejected, nil)
			var invalidStateErr *InvalidStateError
			Expect(errors.As(err, &invalidStateErr)).To(BeTrue())
		})

		It("should return ErrNotFound for another owner's candidate", func() {
			_, err := db.TransitionCandidate("owner-2", "cand-1", []CandidateStatus{CandidatePending}, CandidateApproved, nil)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("SaveTransaction and QueryTransactions", func() {
		BeforeEach(func() {
			dates := []time.Time{
				time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			}
			for i, date := range dates {
				Expect(db.SaveTransaction(&Transaction{
					ID:          string(rune('a' + i)),
					OwnerID:     "owner-1",
					Date:        date,
					Description: "Entry",
					Amount:      decimal.NewFromInt(int64(i + 1)),
					Type:        TypeExpense,
				})).To(Succeed())
			}
			Expect(db.SaveTransaction(&Transaction{
				ID:      "other",
				OwnerID: "owner-2",
				Date:    time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
				Amount:  decimal.NewFromInt(9),
			})).To(Succeed())
		})

		It("should return entries inside the date range, oldest first", func() {
			txns, err := db.QueryTransactions("owner-1",
				time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
			Expect(err).NotTo(HaveOccurred())
			Expect(txns).To(HaveLen(2))
			Expect(txns[0].Date.Before(txns[1].Date)).To(BeTrue())
		})

		It("should treat zero bounds as open-ended", func() {
			txns, err := db.QueryTransactions("owner-1", time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(txns).To(HaveLen(3))
		})

		It("should scope the query to the owner", func() {
			txns, err := db.QueryTransactions("owner-2", time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(txns).To(HaveLen(1))
			Expect(txns[0].ID).To(Equal("other"))
		})
	})

	Describe("persistence across reopen", func() {
		It("should retain documents after closing and reopening", func() {
			Expect(db.SaveDocument(newDocument("doc-1", "owner-1", DocumentProcessed))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			saved, err := reopened.GetDocument("owner-1", "doc-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Status).To(Equal(DocumentProcessed))

			db = nil
		})
	})
})

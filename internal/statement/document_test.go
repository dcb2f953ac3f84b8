package statement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DocumentStatus", func() {
	Describe("canTransitionTo", func() {
		It("should allow PENDING only into PROCESSING", func() {
			Expect(DocumentPending.canTransitionTo(DocumentProcessing)).To(BeTrue())
			Expect(DocumentPending.canTransitionTo(DocumentProcessed)).To(BeFalse())
			Expect(DocumentPending.canTransitionTo(DocumentImported)).To(BeFalse())
		})

		It("should conclude PROCESSING in PROCESSED or FAILED", func() {
			Expect(DocumentProcessing.canTransitionTo(DocumentProcessed)).To(BeTrue())
			Expect(DocumentProcessing.canTransitionTo(DocumentFailed)).To(BeTrue())
			Expect(DocumentProcessing.canTransitionTo(DocumentPending)).To(BeFalse())
			Expect(DocumentProcessing.canTransitionTo(DocumentImported)).To(BeFalse())
		})

		It("should allow retrying a FAILED document", func() {
			Expect(DocumentFailed.canTransitionTo(DocumentProcessing)).To(BeTrue())
			Expect(DocumentFailed.canTransitionTo(DocumentProcessed)).To(BeFalse())
		})

		It("should allow a PROCESSED document to re-process or import", func() {
			Expect(DocumentProcessed.canTransitionTo(DocumentProcessing)).To(BeTrue())
			Expect(DocumentProcessed.canTransitionTo(DocumentImported)).To(BeTrue())
			Expect(DocumentProcessed.canTransitionTo(DocumentFailed)).To(BeFalse())
		})

		It("should treat IMPORTED as terminal", func() {
			for _, next := range []DocumentStatus{DocumentPending, DocumentProcessing, DocumentProcessed, DocumentFailed} {
				Expect(DocumentImported.canTransitionTo(next)).To(BeFalse())
			}
		})
	})
})

var _ = Describe("CandidateStatus", func() {
	Describe("canTransitionTo", func() {
		It("should allow PENDING into any decision", func() {
			Expect(CandidatePending.canTransitionTo(CandidateApproved)).To(BeTrue())
			Expect(CandidatePending.canTransitionTo(CandidateRejected)).To(BeTrue())
			Expect(CandidatePending.canTransitionTo(CandidateDuplicate)).To(BeTrue())
		})

		It("should allow overriding a DUPLICATE verdict", func() {
			Expect(CandidateDuplicate.canTransitionTo(CandidateApproved)).To(BeTrue())
			Expect(CandidateDuplicate.canTransitionTo(CandidateRejected)).To(BeTrue())
			Expect(CandidateDuplicate.canTransitionTo(CandidatePending)).To(BeFalse())
		})

		It("should treat APPROVED and REJECTED as final", func() {
			for _, next := range []CandidateStatus{CandidatePending, CandidateRejected, CandidateDuplicate} {
				Expect(CandidateApproved.canTransitionTo(next)).To(BeFalse())
			}
			for _, next := range []CandidateStatus{CandidatePending, CandidateApproved, CandidateDuplicate} {
				Expect(CandidateRejected.canTransitionTo(next)).To(BeFalse())
			}
		})
	})
})

var _ = Describe("TransactionType", func() {
	It("should accept the two known directions", func() {
		Expect(TypeIncome.valid()).To(BeTrue())
		Expect(TypeExpense.valid()).To(BeTrue())
	})

	It("should reject anything else", func() {
		Expect(TransactionType("TRANSFER").valid()).To(BeFalse())
		Expect(TransactionType("").valid()).To(BeFalse())
	})
})

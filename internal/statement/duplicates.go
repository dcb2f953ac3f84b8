package statement

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

const (
	// duplicateDateWindowDays is how far apart a candidate and a ledger
	// entry may be dated and still count as the same transaction
	duplicateDateWindowDays = 2

	// duplicateSimilarityThreshold is the minimum token overlap between
	// normalized descriptions for a duplicate verdict
	duplicateSimilarityThreshold = 0.5
)

// DuplicateReport is the outcome of a duplicate check
type DuplicateReport struct {
	TotalChecked    int `json:"total_checked"`
	DuplicatesFound int `json:"duplicates_found"`
}

// CheckDuplicates flags PENDING candidates that plausibly already exist in
// the ledger: dates within two days, cent-equal amounts and similar
// descriptions. The verdict is a flag, never a merge or delete, and the
// check is deterministic because it only reads the ledger.
func (s *Service) CheckDuplicates(ownerID, documentID string) (*DuplicateReport, error) {
	candidates, err := s.ListCandidates(ownerID, documentID)
	if err != nil {
		return nil, err
	}

	pending := make([]*PendingTransaction, 0, len(candidates))
	for _, c := range candidates {
		if c.Status == CandidatePending {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return &DuplicateReport{}, nil
	}

	from, to := dateBounds(pending)
	ledger, err := s.db.QueryTransactions(ownerID, from.AddDate(0, 0, -duplicateDateWindowDays), to.AddDate(0, 0, duplicateDateWindowDays))
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}

	report := &DuplicateReport{TotalChecked: len(pending)}
	for _, c := range pending {
		match := findLedgerMatch(c, ledger)
		if match == nil {
			continue
		}

		_, err := s.db.TransitionCandidate(ownerID, c.ID, []CandidateStatus{CandidatePending}, CandidateDuplicate, func(pt *PendingTransaction) {
			pt.DuplicateOfID = match.ID
			pt.UpdatedAt = s.timeSource.Now()
		})
		if err != nil {
			// A concurrent decision beat the verdict; leave it be
			slog.Warn("Skipping duplicate flag", "candidate_id", c.ID, "error", err)
			continue
		}
		report.DuplicatesFound++
	}
	return report, nil
}

// findLedgerMatch returns the first ledger entry that matches the candidate
// under the duplicate policy
func findLedgerMatch(c *PendingTransaction, ledger []*Transaction) *Transaction {
	for _, txn := range ledger {
		if !withinDays(c.Date, txn.Date, duplicateDateWindowDays) {
			continue
		}
		if !c.Amount.Equal(txn.Amount) {
			continue
		}
		if descriptionSimilarity(c.Description, txn.Description) < duplicateSimilarityThreshold {
			continue
		}
		return txn
	}
	return nil
}

// withinDays reports whether two dates are at most n days apart
func withinDays(a, b time.Time, n int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(n)*24*time.Hour
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// descriptionSimilarity computes case- and whitespace-insensitive token
// overlap (Jaccard) between two descriptions
func descriptionSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	union := len(tokensB)
	for token := range tokensA {
		if tokensB[token] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / float64(union)
}

// tokenize lowercases a description and splits it into alphanumeric tokens
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		tokens[t] = true
	}
	return tokens
}

// dateBounds returns the min and max candidate dates
func dateBounds(candidates []*PendingTransaction) (time.Time, time.Time) {
	min, max := candidates[0].Date, candidates[0].Date
	for _, c := range candidates[1:] {
		if c.Date.Before(min) {
			min = c.Date
		}
		if c.Date.After(max) {
			max = c.Date
		}
	}
	return min, max
}

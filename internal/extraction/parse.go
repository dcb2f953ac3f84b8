package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// statementJSON mirrors the JSON shape the extraction prompt asks for
type statementJSON struct {
	StatementInfo struct {
		BankName       string `json:"bank_name"`
		AccountType    string `json:"account_type"`
		LastFour       string `json:"last_four"`
		StatementStart string `json:"statement_start"`
		StatementEnd   string `json:"statement_end"`
	} `json:"statement_info"`
	Transactions []struct {
		Date                string      `json:"date"`
		Description         string      `json:"description"`
		OriginalDescription string      `json:"original_description"`
		Amount              json.Number `json:"amount"`
		Type                string      `json:"type"`
		Category            string      `json:"category"`
		Confidence          float64     `json:"confidence"`
	} `json:"transactions"`
}

// dateFormats are the formats providers have been seen returning despite
// being asked for YYYY-MM-DD
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01/02/06",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// parseStatementJSON parses an LLM response into a normalized Result.
// Rows with an unparseable date or a non-positive amount are skipped
// rather than failing the whole extraction.
func parseStatementJSON(text string) (*Result, error) {
	text = stripCodeFences(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var raw statementJSON
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &Result{
		Info: StatementInfo{
			BankName:       strings.TrimSpace(raw.StatementInfo.BankName),
			AccountType:    strings.TrimSpace(raw.StatementInfo.AccountType),
			LastFour:       strings.TrimSpace(raw.StatementInfo.LastFour),
			StatementStart: parseDateLenient(raw.StatementInfo.StatementStart),
			StatementEnd:   parseDateLenient(raw.StatementInfo.StatementEnd),
		},
	}

	for _, t := range raw.Transactions {
		date := parseDateLenient(t.Date)
		if date.IsZero() {
			continue
		}

		amount, err := parseAmount(t.Amount)
		if err != nil || !amount.IsPositive() {
			continue
		}

		description := strings.TrimSpace(t.Description)
		if description == "" {
			description = "Unknown"
		}
		original := strings.TrimSpace(t.OriginalDescription)
		if original == "" {
			original = description
		}

		result.Rows = append(result.Rows, Row{
			Date:                date,
			Description:         description,
			OriginalDescription: original,
			Amount:              amount,
			Direction:           parseDirection(t.Type),
			Category:            strings.TrimSpace(t.Category),
			Confidence:          clampConfidence(t.Confidence),
		})
	}

	return result, nil
}

// stripCodeFences removes markdown code blocks some models wrap JSON in
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseDateLenient tries the known date formats and returns the zero time
// when none match
func parseDateLenient(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return time.Time{}
	}
	for _, format := range dateFormats {
		if d, err := time.Parse(format, s); err == nil {
			return d
		}
	}
	return time.Time{}
}

// parseAmount converts a JSON number to a positive fixed-point amount with
// two decimal places
func parseAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, fmt.Errorf("missing amount")
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", n.String(), err)
	}
	return d.Abs().Round(2), nil
}

// parseDirection maps the provider-reported type onto a Direction,
// defaulting to debit since statements are dominated by charges
func parseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "credit", "deposit":
		return DirectionCredit
	default:
		return DirectionDebit
	}
}

// clampConfidence forces a confidence score into [0, 1]
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

package extraction

import "context"

// mockStatementJSON is a small fixed statement response. Routing it through
// parseStatementJSON keeps the mock on the exact same path as real providers.
const mockStatementJSON = `{
  "statement_info": {
    "bank_name": "Mock Bank",
    "account_type": "checking",
    "last_four": "1234",
    "statement_start": "2024-03-01",
    "statement_end": "2024-03-31"
  },
  "transactions": [
    {
      "date": "2024-03-02",
      "description": "Trader Joes",
      "original_description": "TRADER JOES #0552 POS DEBIT",
      "amount": 84.12,
      "type": "expense",
      "category": "Groceries",
      "confidence": 0.96
    },
    {
      "date": "2024-03-05",
      "description": "Netflix",
      "original_description": "NETFLIX.COM RECURRING",
      "amount": 15.49,
      "type": "expense",
      "category": "Subscriptions",
      "confidence": 0.99
    },
    {
      "date": "2024-03-15",
      "description": "Payroll Deposit",
      "original_description": "ACH CREDIT ACME CORP PAYROLL",
      "amount": 2450.00,
      "type": "income",
      "category": "Income",
      "confidence": 0.98
    }
  ]
}`

// Mock is an always-available provider returning a fixed deterministic
// statement, useful for development and for running the pipeline without
// an LLM configured.
type Mock struct{}

// NewMock creates a new Mock Provider instance
func NewMock() *Mock {
	return &Mock{}
}

// Name returns the provider identifier
func (m *Mock) Name() string {
	return "mock"
}

// Available always reports true
func (m *Mock) Available(ctx context.Context) bool {
	return true
}

// Extract returns the canned statement
func (m *Mock) Extract(ctx context.Context, pdfData []byte) (*Result, error) {
	result, err := parseStatementJSON(mockStatementJSON)
	if err != nil {
		return nil, err
	}
	result.Provider = m.Name()
	result.Model = "mock-v1"
	return result, nil
}

// Close is a no-op
func (m *Mock) Close() error {
	return nil
}

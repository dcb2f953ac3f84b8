package extraction

import "strings"

// transactionCategories are the categories the LLM is asked to choose from
var transactionCategories = []string{
	"Groceries",
	"Dining",
	"Transportation",
	"Utilities",
	"Entertainment",
	"Shopping",
	"Healthcare",
	"Subscriptions",
	"Travel",
	"Housing",
	"Insurance",
	"Education",
	"Personal Care",
	"Gifts & Donations",
	"Income",
	"Transfer",
	"Fees & Charges",
	"Other",
}

// systemPrompt is the shared instruction used by all LLM providers for
// statement extraction
var systemPrompt = `You are a financial document parser specializing in bank statement extraction.
Your task is to extract transaction data from bank statements accurately.

IMPORTANT RULES:
1. Extract ALL transactions you can find in the document
2. Dates should be in YYYY-MM-DD format
3. Amounts should be positive numbers (indicate the direction in the type field)
4. Identify the transaction type: 'expense' for charges/purchases, 'income' for credits/deposits
5. Categorize each transaction using these categories: ` + strings.Join(transactionCategories, ", ") + `
6. Include confidence scores (0.0 to 1.0) based on how certain you are about each extraction
7. Preserve the original description exactly as it appears

Return ONLY valid JSON in this exact format:
{
  "statement_info": {
    "bank_name": "string or null",
    "account_type": "credit_card|checking|savings|null",
    "last_four": "string (last 4 digits) or null",
    "statement_start": "YYYY-MM-DD or null",
    "statement_end": "YYYY-MM-DD or null"
  },
  "transactions": [
    {
      "date": "YYYY-MM-DD",
      "description": "cleaned description",
      "original_description": "exact text from statement",
      "amount": 123.45,
      "type": "expense|income",
      "category": "category name",
      "confidence": 0.95
    }
  ]
}

Do not include any text before or after the JSON. Do not use markdown code blocks.`

// maxPromptChars caps the statement text sent to the LLM to stay within
// model context limits
const maxPromptChars = 50000

// buildUserPrompt wraps extracted statement text in the extraction request
func buildUserPrompt(statementText string) string {
	if len(statementText) > maxPromptChars {
		statementText = statementText[:maxPromptChars] + "\n\n[Document truncated due to length]"
	}

	return "Please extract all transactions from this bank statement.\n\n" +
		statementText +
		"\n\nExtract every transaction you can find and return the JSON response."
}

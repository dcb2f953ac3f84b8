package extraction

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// extractPDFText pulls the text layer out of a PDF statement, page by page,
// formatted with page markers so the LLM can follow document structure
func extractPDFText(pdfData []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	b.WriteString("=== BANK STATEMENT DOCUMENT ===\n")
	fmt.Fprintf(&b, "Total Pages: %d\n", doc.NumPage())

	empty := true
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extracting text from page %d: %w", i+1, err)
		}
		if strings.TrimSpace(text) != "" {
			empty = false
		}
		fmt.Fprintf(&b, "\n--- PAGE %d ---\n%s", i+1, text)
	}

	// Scanned statements have no text layer and nothing to prompt with
	if empty {
		return "", fmt.Errorf("no text layer found; the document may be scanned or image-based")
	}

	return b.String(), nil
}

package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Provider interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGemini creates a new Gemini Provider instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)

	return &Gemini{
		client: client,
		model:  model,
		name:   modelName,
	}, nil
}

// Name returns the provider identifier
func (g *Gemini) Name() string {
	return "gemini"
}

// Available reports whether the provider can serve requests. A Gemini
// instance only exists with an API key, so it is available by construction.
func (g *Gemini) Available(ctx context.Context) bool {
	return true
}

// Extract parses a PDF bank statement into transaction rows
func (g *Gemini) Extract(ctx context.Context, pdfData []byte) (*Result, error) {
	statementText, err := extractPDFText(pdfData)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{
		genai.Text(systemPrompt),
		genai.Text(buildUserPrompt(statementText)),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	result, err := parseStatementJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing statement data: %w", err)
	}

	result.Provider = g.Name()
	result.Model = g.name
	return result, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

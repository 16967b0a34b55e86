package answer

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash-001"

// Gemini answers through Google's Generative Language API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a client bound to model. Close releases its connection.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: client, model: client.GenerativeModel(model)}, nil
}

func (g *Gemini) Answer(ctx context.Context, docContext, question string) (*Answer, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(Prompt(docContext, question)))
	if err != nil {
		return nil, classify("gemini", err)
	}
	return geminiAnswer(resp)
}

// Close shuts down the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func geminiAnswer(resp *genai.GenerateContentResponse) (*Answer, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &ProviderError{Provider: "gemini", Class: ErrMalformed}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Provider: "gemini", Class: ErrMalformed}
	}

	a := &Answer{Text: text}
	if resp.UsageMetadata != nil && resp.UsageMetadata.TotalTokenCount > 0 {
		n := int(resp.UsageMetadata.TotalTokenCount)
		a.TokensUsed = &n
	}
	return a, nil
}

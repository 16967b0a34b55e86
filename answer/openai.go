package answer

import (
	"context"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI answers through any OpenAI compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a client. An empty baseURL keeps the library default.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Answer(ctx context.Context, docContext, question string) (*Answer, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(docContext, question)},
		},
	})
	if err != nil {
		return nil, classify("openai", err)
	}
	return openAIAnswer(resp)
}

func openAIAnswer(resp openai.ChatCompletionResponse) (*Answer, error) {
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: "openai", Class: ErrMalformed}
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Provider: "openai", Class: ErrMalformed}
	}

	a := &Answer{Text: text}
	if resp.Usage.TotalTokens > 0 {
		n := resp.Usage.TotalTokens
		a.TokensUsed = &n
	}
	return a, nil
}

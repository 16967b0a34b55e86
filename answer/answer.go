// Package answer generates answers to questions about a document excerpt.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cppla/docqa/config"
)

// Upstream failure classes. Provider errors returned by an Answerer match
// exactly one of these through errors.Is.
var (
	ErrQuota         = errors.New("answer provider quota exhausted")
	ErrTimeout       = errors.New("answer provider timed out")
	ErrMalformed     = errors.New("answer provider returned no usable answer")
	ErrUnavailable   = errors.New("answer provider unavailable")
	ErrNotConfigured = errors.New("answer provider not configured")
)

const (
	GeminiKeyMissing = "Google Generative AI API key not configured. Please set the GENAI_API_KEY environment variable."
	OpenAIKeyMissing = "OpenAI API key not configured. Please set the OPENAI_API_KEY environment variable."
)

// Answer is a generated reply. TokensUsed is nil when the provider does not report usage.
type Answer struct {
	Text       string
	TokensUsed *int
}

// Answerer answers question using docContext as the only background.
type Answerer interface {
	Answer(ctx context.Context, docContext, question string) (*Answer, error)
}

// Prompt renders the single-turn prompt sent to hosted providers.
func Prompt(docContext, question string) string {
	return fmt.Sprintf("Given this context: %s\nAnswer this question: %s", docContext, question)
}

// Truncate returns at most n characters of s, counted in runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ProviderError carries the failure class and the provider's own error.
type ProviderError struct {
	Provider string
	Class    error
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Class)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Err}
}

// NotConfigured answers every question with ErrNotConfigured. It stands in
// for a hosted provider whose credentials are missing so the server still boots.
type NotConfigured struct {
	Provider string
	Detail   string
}

func (n *NotConfigured) Answer(context.Context, string, string) (*Answer, error) {
	return nil, &ProviderError{Provider: n.Provider, Class: ErrNotConfigured, Err: errors.New(n.Detail)}
}

// DetailOf returns the human readable reason behind a not-configured error.
func DetailOf(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}

// New builds the Answerer selected by cfg.AnswerProvider.
func New(ctx context.Context, cfg config.AppConfig) (Answerer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AnswerProvider)) {
	case "mock":
		return Mock{}, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return &NotConfigured{Provider: "openai", Detail: OpenAIKeyMissing}, nil
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case "", "gemini":
		if cfg.GenAIAPIKey == "" {
			return &NotConfigured{Provider: "gemini", Detail: GeminiKeyMissing}, nil
		}
		return NewGemini(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	default:
		return nil, fmt.Errorf("unknown answer provider %q", cfg.AnswerProvider)
	}
}

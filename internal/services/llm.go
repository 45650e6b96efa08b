package services

import (
	"context"
	"fmt"
	"time"
)

// CompletionService produces one completion for one prompt.
type CompletionService interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

// EmbeddingService turns text into vectors for indexing and retrieval.
// EmbedBatch returns one vector per input, in input order.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMClient bundles both capabilities of a model provider.
type LLMClient interface {
	CompletionService
	EmbeddingService
}

// LLMOptions selects and configures the model provider.
type LLMOptions struct {
	Provider string // "ollama" or "gemini"

	GeminiAPIKey     string
	GeminiModel      string
	GeminiEmbedModel string

	OllamaURL        string
	OllamaModel      string
	OllamaEmbedModel string

	// RequestTimeout bounds every single provider call.
	RequestTimeout time.Duration
}

func NewLLMClient(opts LLMOptions) (LLMClient, error) {
	switch opts.Provider {
	case "", "ollama":
		return NewOllamaClient(opts)
	case "gemini":
		return NewGeminiClient(opts)
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", ErrConfiguration, opts.Provider)
	}
}

func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

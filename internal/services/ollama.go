package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

type ollamaClient struct {
	chat    *ollama.LLM
	embed   *ollama.LLM
	timeout time.Duration
}

// NewOllamaClient connects to a local Ollama server. Chat and embeddings
// get separate handles because the server routes by model name.
func NewOllamaClient(opts LLMOptions) (LLMClient, error) {
	chat, err := ollama.New(
		ollama.WithServerURL(opts.OllamaURL),
		ollama.WithModel(opts.OllamaModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama chat client: %w", err)
	}

	embed, err := ollama.New(
		ollama.WithServerURL(opts.OllamaURL),
		ollama.WithModel(opts.OllamaEmbedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedding client: %w", err)
	}

	return &ollamaClient{chat: chat, embed: embed, timeout: opts.RequestTimeout}, nil
}

func (o *ollamaClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := callContext(ctx, o.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := o.chat.GenerateContent(ctx, messages,
		llms.WithTemperature(float64(temperature)),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("empty completion from ollama")
	}
	return resp.Choices[0].Content, nil
}

func (o *ollamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (o *ollamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := callContext(ctx, o.timeout)
	defer cancel()

	capped := make([]string, len(texts))
	for i, text := range texts {
		capped[i] = truncateRunes(text, maxEmbedChars)
	}

	vectors, err := o.embed.CreateEmbedding(ctx, capped)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	return vectors, nil
}

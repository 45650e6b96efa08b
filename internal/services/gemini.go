package services

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// maxEmbedChars caps text sent to the embedding endpoint.
const maxEmbedChars = 40000

type geminiClient struct {
	client     *genai.Client
	model      string
	embedModel string
	timeout    time.Duration
}

// NewGeminiClient connects to the hosted Gemini API.
func NewGeminiClient(opts LLMOptions) (LLMClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  opts.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiClient{
		client:     client,
		model:      opts.GeminiModel,
		embedModel: opts.GeminiEmbedModel,
		timeout:    opts.RequestTimeout,
	}, nil
}

func (g *geminiClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(maxTokens),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || resp.Text() == "" {
		return "", fmt.Errorf("empty completion from model %s", g.model)
	}
	return resp.Text(), nil
}

func (g *geminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *geminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := callContext(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.Text(truncateRunes(text, maxEmbedChars))...)
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("empty embedding result")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

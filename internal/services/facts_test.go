package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const factsResume = "Backend engineer with five years of Python, building OCR pipelines on AWS."

func TestFactExtractorParsesValidReply(t *testing.T) {
	llm := &stubLLM{complete: func(_ context.Context, _ int, _ string) (string, error) {
		return `{"skills": ["Python", "AWS"], "experience": ["Backend engineer, 5 years"], "education": ["BSc Computer Science"]}`, nil
	}}
	extractor := NewFactExtractor(llm, NewPromptBuilder(), PipelineConfig{}, zap.NewNop())

	profile, degraded, err := extractor.Extract(context.Background(), uuid.New(), factsResume)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, []string{"Python", "AWS"}, profile.Skills)
	assert.Equal(t, []string{"Backend engineer, 5 years"}, profile.Experience)
	assert.Equal(t, []string{"BSc Computer Science"}, profile.Education)
	assert.Equal(t, 1, llm.calls())
}

func TestFactExtractorRetriesWithCorrectionPrompt(t *testing.T) {
	llm := &stubLLM{complete: func(_ context.Context, call int, _ string) (string, error) {
		if call == 1 {
			return "profile: lots of Python", nil
		}
		return `{"skills": ["Python"], "experience": [], "education": []}`, nil
	}}
	extractor := NewFactExtractor(llm, NewPromptBuilder(), PipelineConfig{ExtractionRetries: 1}, zap.NewNop())

	profile, degraded, err := extractor.Extract(context.Background(), uuid.New(), factsResume)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, []string{"Python"}, profile.Skills)

	require.Equal(t, 2, llm.calls())
	assert.Contains(t, llm.prompt(1), "could not be parsed as JSON")
	assert.Contains(t, llm.prompt(1), "profile: lots of Python")
}

func TestFactExtractorDegradesAfterRetries(t *testing.T) {
	llm := &stubLLM{complete: func(_ context.Context, _ int, _ string) (string, error) {
		return "still not json", nil
	}}
	extractor := NewFactExtractor(llm, NewPromptBuilder(), PipelineConfig{ExtractionRetries: 2}, zap.NewNop())

	profile, degraded, err := extractor.Extract(context.Background(), uuid.New(), factsResume)
	require.NoError(t, err)
	assert.True(t, degraded)
	require.NotNil(t, profile)
	assert.True(t, profile.IsEmpty())
	assert.NotNil(t, profile.Skills)
	assert.Equal(t, 3, llm.calls())
}

func TestFactExtractorRetriesOriginalPromptAfterCallError(t *testing.T) {
	llm := &stubLLM{complete: func(_ context.Context, call int, _ string) (string, error) {
		if call == 1 {
			return "", fmt.Errorf("model overloaded")
		}
		return `{"skills": ["Go"], "experience": [], "education": []}`, nil
	}}
	extractor := NewFactExtractor(llm, NewPromptBuilder(), PipelineConfig{ExtractionRetries: 1}, zap.NewNop())

	profile, degraded, err := extractor.Extract(context.Background(), uuid.New(), factsResume)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Equal(t, []string{"Go"}, profile.Skills)

	require.Equal(t, 2, llm.calls())
	assert.Equal(t, llm.prompt(0), llm.prompt(1))
}

func TestFactExtractorStopsOnCancelledContext(t *testing.T) {
	llm := &stubLLM{}
	extractor := NewFactExtractor(llm, NewPromptBuilder(), PipelineConfig{ExtractionRetries: 5}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := extractor.Extract(ctx, uuid.New(), factsResume)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, llm.calls())
}

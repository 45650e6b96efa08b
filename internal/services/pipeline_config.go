package services

import (
	"fmt"
	"time"

	"shortlister/internal/models"
)

// requiredWeightSum is the total the requisite weights must add up to.
const requiredWeightSum = 100

// PipelineConfig carries every tunable of the evaluation pipeline. It is
// passed by value so a running orchestrator can never observe a change.
type PipelineConfig struct {
	Requisites []models.Requisite

	ChunkSize        int
	ChunkOverlap     int
	MinDocumentChars int

	EvidenceK         int
	ExtractionRetries int
	JudgeRetries      int
	SummaryRetries    int

	IndexAttempts   int
	IndexRetryDelay time.Duration

	EvalConcurrency int
	MaxTokens       int
	Temperature     float32

	StrengthThreshold int
	GapThreshold      int
}

// withDefaults fills zero values so components constructed directly, for
// example in tests, behave sensibly.
func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 800
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.MinDocumentChars <= 0 {
		c.MinDocumentChars = 50
	}
	if c.EvidenceK <= 0 {
		c.EvidenceK = 6
	}
	if c.ExtractionRetries < 0 {
		c.ExtractionRetries = 0
	}
	if c.JudgeRetries < 0 {
		c.JudgeRetries = 0
	}
	if c.SummaryRetries < 0 {
		c.SummaryRetries = 0
	}
	if c.IndexAttempts <= 0 {
		c.IndexAttempts = 3
	}
	if c.IndexRetryDelay <= 0 {
		c.IndexRetryDelay = 2 * time.Second
	}
	if c.EvalConcurrency <= 0 {
		c.EvalConcurrency = 3
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Temperature < 0 {
		c.Temperature = 0
	}
	if c.StrengthThreshold <= 0 {
		c.StrengthThreshold = 70
	}
	if c.GapThreshold <= 0 {
		c.GapThreshold = 70
	}
	return c
}

// Validate checks the requisite set. Called once at startup; a pipeline
// never starts with weights that cannot produce a meaningful average.
func (c PipelineConfig) Validate() error {
	if len(c.Requisites) == 0 {
		return fmt.Errorf("%w: no requisites configured", ErrConfiguration)
	}

	seen := make(map[string]bool, len(c.Requisites))
	sum := 0
	for _, req := range c.Requisites {
		if req.Name == "" {
			return fmt.Errorf("%w: requisite with empty name", ErrConfiguration)
		}
		if seen[req.Name] {
			return fmt.Errorf("%w: duplicate requisite %q", ErrConfiguration, req.Name)
		}
		seen[req.Name] = true
		if req.Weight <= 0 {
			return fmt.Errorf("%w: requisite %q has non-positive weight %d", ErrConfiguration, req.Name, req.Weight)
		}
		sum += req.Weight
	}
	if sum != requiredWeightSum {
		return fmt.Errorf("%w: requisite weights sum to %d, want %d", ErrConfiguration, sum, requiredWeightSum)
	}
	return nil
}

package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortlister/internal/models"
)

// FactExtractor distills a resume into a structured profile in a single
// model pass. A reply that cannot be parsed gets one correction round per
// configured retry; when every round fails the run continues with an
// empty profile instead of aborting.
type FactExtractor interface {
	// Extract returns the profile and whether extraction degraded. The
	// error is non-nil only when the context ended.
	Extract(ctx context.Context, candidateID uuid.UUID, resumeText string) (*models.CandidateProfile, bool, error)
}

type factExtractor struct {
	llm         CompletionService
	prompts     *PromptBuilder
	retries     int
	maxTokens   int
	temperature float32
	log         *zap.Logger
}

func NewFactExtractor(llm CompletionService, prompts *PromptBuilder, cfg PipelineConfig, log *zap.Logger) FactExtractor {
	cfg = cfg.withDefaults()
	return &factExtractor{
		llm:         llm,
		prompts:     prompts,
		retries:     cfg.ExtractionRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}
}

func (f *factExtractor) Extract(ctx context.Context, candidateID uuid.UUID, resumeText string) (*models.CandidateProfile, bool, error) {
	original := f.prompts.BuildFactExtractionPrompt(resumeText)
	prompt := original

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		reply, err := f.llm.Complete(ctx, prompt, f.maxTokens, f.temperature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			lastErr = err
			prompt = original
			continue
		}

		profile, err := parseProfileReply(reply)
		if err != nil {
			lastErr = err
			prompt = f.prompts.BuildCorrectionPrompt(original, reply)
			continue
		}

		return profile, false, nil
	}

	f.log.Warn("fact extraction degraded, continuing with empty profile",
		zap.String("candidate_id", candidateID.String()),
		zap.Error(lastErr))
	return &models.CandidateProfile{
		Skills:     []string{},
		Experience: []string{},
		Education:  []string{},
	}, true, nil
}

func parseProfileReply(reply string) (*models.CandidateProfile, error) {
	payload, err := decodeJSONObject(reply)
	if err != nil {
		return nil, err
	}
	return &models.CandidateProfile{
		Skills:     coerceStringSlice(payload["skills"]),
		Experience: coerceStringSlice(payload["experience"]),
		Education:  coerceStringSlice(payload["education"]),
	}, nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortlister/internal/models"
)

// SummaryGenerator writes the final narrative for a completed run. When
// the model cannot produce a parseable summary the generator falls back
// to a rule-based one built from the per-requisite scores, so a run never
// fails at the summary stage.
type SummaryGenerator interface {
	// Summarize returns the run summary. The error is non-nil only when
	// the context ended.
	Summarize(ctx context.Context, candidateID uuid.UUID, overallPercent int, results []models.CriterionResult) (models.Summary, error)
}

type summaryGenerator struct {
	llm               CompletionService
	prompts           *PromptBuilder
	retries           int
	maxTokens         int
	temperature       float32
	strengthThreshold int
	gapThreshold      int
	log               *zap.Logger
}

func NewSummaryGenerator(llm CompletionService, prompts *PromptBuilder, cfg PipelineConfig, log *zap.Logger) SummaryGenerator {
	cfg = cfg.withDefaults()
	return &summaryGenerator{
		llm:               llm,
		prompts:           prompts,
		retries:           cfg.SummaryRetries,
		maxTokens:         cfg.MaxTokens,
		temperature:       cfg.Temperature,
		strengthThreshold: cfg.StrengthThreshold,
		gapThreshold:      cfg.GapThreshold,
		log:               log,
	}
}

func (sg *summaryGenerator) Summarize(ctx context.Context, candidateID uuid.UUID, overallPercent int, results []models.CriterionResult) (models.Summary, error) {
	original := sg.prompts.BuildSummaryPrompt(overallPercent, results)
	prompt := original

	var lastErr error
	for attempt := 0; attempt <= sg.retries; attempt++ {
		reply, err := sg.llm.Complete(ctx, prompt, sg.maxTokens, sg.temperature)
		if err != nil {
			if ctx.Err() != nil {
				return models.Summary{}, ctx.Err()
			}
			lastErr = err
			prompt = original
			continue
		}

		summary, err := parseSummaryReply(reply)
		if err != nil {
			lastErr = err
			prompt = sg.prompts.BuildCorrectionPrompt(original, reply)
			continue
		}

		return summary, nil
	}

	sg.log.Warn("summary generation degraded, using rule-based summary",
		zap.String("candidate_id", candidateID.String()),
		zap.Error(lastErr))
	return sg.ruleBasedSummary(overallPercent, results), nil
}

func parseSummaryReply(reply string) (models.Summary, error) {
	payload, err := decodeJSONObject(reply)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summary{
		Strengths:      coerceStringSlice(payload["strengths"]),
		Gaps:           coerceStringSlice(payload["gaps"]),
		OverallComment: coerceString(payload["overall_comment"]),
	}, nil
}

// ruleBasedSummary derives strengths and gaps from the scores alone.
func (sg *summaryGenerator) ruleBasedSummary(overallPercent int, results []models.CriterionResult) models.Summary {
	strengths := []string{}
	gaps := []string{}
	for _, result := range results {
		if result.ScorePercent >= sg.strengthThreshold {
			strengths = append(strengths, result.Requisite)
		}
		if result.ScorePercent < sg.gapThreshold {
			gaps = append(gaps, result.Requisite)
		}
	}

	tier := "Weak match"
	switch {
	case overallPercent >= 75:
		tier = "Strong match"
	case overallPercent >= 55:
		tier = "Moderate match"
	}

	return models.Summary{
		Strengths:      strengths,
		Gaps:           gaps,
		OverallComment: fmt.Sprintf("%s: overall weighted score %d%% across %d requirements.", tier, overallPercent, len(results)),
	}
}

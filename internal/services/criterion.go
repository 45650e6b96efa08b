package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortlister/internal/models"
)

// failedJudgmentRationale marks placeholder results so downstream
// consumers can tell a genuine zero from a judgment that never happened.
const failedJudgmentRationale = "evaluation failed: the judgment for this requirement could not be completed"

// CriterionEvaluator judges one requisite against a candidate's indexed
// evidence. A judgment that keeps producing unparseable replies is
// replaced by a zero-score placeholder; the run itself never fails over a
// single requisite.
type CriterionEvaluator interface {
	// EvaluateCriterion returns the judgment for one requisite. The error
	// is non-nil only when the context ended.
	EvaluateCriterion(ctx context.Context, candidateID uuid.UUID, req models.Requisite, profile *models.CandidateProfile) (models.CriterionResult, error)
}

type criterionEvaluator struct {
	retriever   Retriever
	llm         CompletionService
	prompts     *PromptBuilder
	evidenceK   int
	retries     int
	maxTokens   int
	temperature float32
	log         *zap.Logger
}

func NewCriterionEvaluator(retriever Retriever, llm CompletionService, prompts *PromptBuilder, cfg PipelineConfig, log *zap.Logger) CriterionEvaluator {
	cfg = cfg.withDefaults()
	return &criterionEvaluator{
		retriever:   retriever,
		llm:         llm,
		prompts:     prompts,
		evidenceK:   cfg.EvidenceK,
		retries:     cfg.JudgeRetries,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         log,
	}
}

func (ce *criterionEvaluator) EvaluateCriterion(ctx context.Context, candidateID uuid.UUID, req models.Requisite, profile *models.CandidateProfile) (models.CriterionResult, error) {
	evidence, err := ce.retriever.Retrieve(ctx, candidateID, req.RetrievalQuery(), ce.evidenceK)
	if err != nil {
		if ctx.Err() != nil {
			return models.CriterionResult{}, ctx.Err()
		}
		// Judge on the profile alone rather than dropping the requisite.
		ce.log.Warn("evidence retrieval failed, judging without context",
			zap.String("candidate_id", candidateID.String()),
			zap.String("requisite", req.Name),
			zap.Error(err))
		evidence = nil
	}

	original := ce.prompts.BuildJudgingPrompt(req, profile, evidence)
	prompt := original

	var lastErr error
	for attempt := 0; attempt <= ce.retries; attempt++ {
		reply, err := ce.llm.Complete(ctx, prompt, ce.maxTokens, ce.temperature)
		if err != nil {
			if ctx.Err() != nil {
				return models.CriterionResult{}, ctx.Err()
			}
			lastErr = err
			prompt = original
			continue
		}

		result, err := parseJudgmentReply(req.Name, reply)
		if err != nil {
			lastErr = err
			prompt = ce.prompts.BuildCorrectionPrompt(original, reply)
			continue
		}

		return result, nil
	}

	ce.log.Warn("criterion judgment failed, recording placeholder",
		zap.String("candidate_id", candidateID.String()),
		zap.String("requisite", req.Name),
		zap.Error(lastErr))
	return models.CriterionResult{
		Requisite:               req.Name,
		ScorePercent:            0,
		Rationale:               failedJudgmentRationale,
		AlternateConsiderations: []string{},
	}, nil
}

func parseJudgmentReply(requisiteName, reply string) (models.CriterionResult, error) {
	payload, err := decodeJSONObject(reply)
	if err != nil {
		return models.CriterionResult{}, err
	}

	rawScore, ok := payload["score_percent"]
	if !ok {
		return models.CriterionResult{}, fmt.Errorf("reply has no score_percent field")
	}
	score, ok := coerceInt(rawScore)
	if !ok {
		return models.CriterionResult{}, fmt.Errorf("score_percent %v is not a number", rawScore)
	}

	return models.CriterionResult{
		Requisite:               requisiteName,
		ScorePercent:            clampPercent(score),
		Rationale:               coerceString(payload["rationale"]),
		AlternateConsiderations: coerceStringSlice(payload["alternate_considerations"]),
	}, nil
}

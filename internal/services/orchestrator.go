package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
)

// PipelineState names the stage a run is in. Ingest runs move through
// INGESTING and INDEXING; evaluation runs move through EXTRACTING_FACTS,
// EVALUATING, AGGREGATING and SUMMARIZING. Only ingest stages can leave a
// candidate FAILED; later stages degrade instead.
type PipelineState string

const (
	StateIngesting       PipelineState = "INGESTING"
	StateIndexing        PipelineState = "INDEXING"
	StateExtractingFacts PipelineState = "EXTRACTING_FACTS"
	StateEvaluating      PipelineState = "EVALUATING"
	StateAggregating     PipelineState = "AGGREGATING"
	StateSummarizing     PipelineState = "SUMMARIZING"
	StateDone            PipelineState = "DONE"
	StateFailed          PipelineState = "FAILED"
)

// maxStoredChars caps how much resume text is kept on the candidate row.
const maxStoredChars = 200000

// Orchestrator drives the two pipeline entry points. Runs for the same
// candidate are serialized; an ingest for a candidate cancels that
// candidate's in-flight evaluation before starting.
type Orchestrator interface {
	Ingest(ctx context.Context, candidateID uuid.UUID, text string) (*models.CandidateStatus, error)
	Evaluate(ctx context.Context, candidateID uuid.UUID) (*models.EvaluationResult, error)
}

type orchestrator struct {
	cfg        PipelineConfig
	chunker    Chunker
	indexer    Indexer
	facts      FactExtractor
	criteria   CriterionEvaluator
	summarizer SummaryGenerator
	store      VectorStore
	candidates repositories.CandidateRepository
	results    repositories.ResultRepository
	locks      *candidateLocks
	runs       *runRegistry
	log        *zap.Logger
}

// NewOrchestrator validates the pipeline configuration and wires the
// stages together. Configuration problems are fatal here, before any
// request is accepted.
func NewOrchestrator(
	cfg PipelineConfig,
	chunker Chunker,
	indexer Indexer,
	facts FactExtractor,
	criteria CriterionEvaluator,
	summarizer SummaryGenerator,
	store VectorStore,
	candidates repositories.CandidateRepository,
	results repositories.ResultRepository,
	log *zap.Logger,
) (Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &orchestrator{
		cfg:        cfg.withDefaults(),
		chunker:    chunker,
		indexer:    indexer,
		facts:      facts,
		criteria:   criteria,
		summarizer: summarizer,
		store:      store,
		candidates: candidates,
		results:    results,
		locks:      newCandidateLocks(),
		runs:       newRunRegistry(),
		log:        log,
	}, nil
}

type pipelineRun struct {
	state PipelineState
	log   *zap.Logger
}

func (r *pipelineRun) enter(state PipelineState) {
	r.state = state
	r.log.Info("pipeline state", zap.String("state", string(state)))
}

// Ingest chunks and indexes one resume. A newer upload supersedes
// whatever run is in flight for the candidate: that run is cancelled and
// its output discarded.
func (o *orchestrator) Ingest(ctx context.Context, candidateID uuid.UUID, text string) (*models.CandidateStatus, error) {
	o.runs.cancel(candidateID)

	release := o.locks.Acquire(candidateID)
	defer release()

	run := &pipelineRun{log: o.log.With(zap.String("candidate_id", candidateID.String()))}
	run.enter(StateIngesting)

	cand, err := o.candidates.FindByID(candidateID)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		cand = &models.Candidate{ID: candidateID, Status: models.IngestionPending}
		if err := o.candidates.Create(cand); err != nil {
			return nil, fmt.Errorf("create candidate: %w", err)
		}
	default:
		return nil, fmt.Errorf("load candidate: %w", err)
	}

	chunks, err := o.chunker.Split(text)
	if err != nil {
		o.failCandidate(run, cand)
		return nil, err
	}

	run.enter(StateIndexing)

	hash := contentHash(text)
	contentChanged := cand.ContentHash != "" && cand.ContentHash != hash
	if contentChanged {
		// Stale chunks must go first: the new text may produce fewer
		// chunks than the old one and upserts only overwrite matching ids.
		if err := o.store.DeleteCandidate(ctx, candidateID.String()); err != nil {
			o.failCandidate(run, cand)
			return nil, fmt.Errorf("%w: clearing stale chunks: %v", ErrIndex, err)
		}
	}

	if err := o.indexer.IndexChunks(ctx, candidateID, chunks); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		o.failCandidate(run, cand)
		return nil, err
	}

	cand.RawText = truncateRunes(text, maxStoredChars)
	cand.CharCount = utf8.RuneCountInString(text)
	cand.ChunkCount = len(chunks)
	cand.ContentHash = hash
	cand.Status = models.IngestionIngested
	if contentChanged {
		// The cached profile described the old text.
		cand.ProfileJSON = ""
	}
	if err := o.candidates.Update(cand); err != nil {
		return nil, fmt.Errorf("persist candidate: %w", err)
	}

	run.enter(StateDone)
	run.log.Info("candidate ingested",
		zap.Int("chunks", len(chunks)),
		zap.Int("characters", cand.CharCount))

	return &models.CandidateStatus{
		CandidateID: candidateID.String(),
		Status:      string(cand.Status),
		Chunks:      len(chunks),
		Characters:  cand.CharCount,
	}, nil
}

// Evaluate runs the scoring pipeline for an ingested candidate and
// persists the result. A run cancelled by a newer upload returns the
// context error and persists nothing.
func (o *orchestrator) Evaluate(ctx context.Context, candidateID uuid.UUID) (*models.EvaluationResult, error) {
	release := o.locks.Acquire(candidateID)
	defer release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.runs.track(candidateID, cancel)
	defer o.runs.untrack(candidateID)

	run := &pipelineRun{log: o.log.With(zap.String("candidate_id", candidateID.String()))}

	cand, err := o.candidates.FindByID(candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
		}
		return nil, fmt.Errorf("load candidate: %w", err)
	}
	if cand.Status != models.IngestionIngested {
		return nil, fmt.Errorf("%w: candidate %s has status %q", ErrCandidateNotIngested, candidateID, cand.Status)
	}

	run.enter(StateExtractingFacts)

	profile, err := cand.Profile()
	if err != nil {
		run.log.Warn("cached profile unreadable, re-extracting", zap.Error(err))
		profile = nil
	}
	if profile == nil {
		extracted, degraded, err := o.facts.Extract(runCtx, candidateID, cand.RawText)
		if err != nil {
			return nil, err
		}
		profile = extracted
		if !degraded {
			// Only successful extractions are cached; a degraded one
			// would pin the empty profile onto every later run.
			if err := cand.SetProfile(profile); err == nil {
				if err := o.candidates.UpdateProfile(cand.ID, cand.ProfileJSON); err != nil {
					run.log.Warn("profile cache write failed", zap.Error(err))
				}
			}
		}
	} else {
		run.log.Debug("using cached profile")
	}

	run.enter(StateEvaluating)

	results := make([]models.CriterionResult, len(o.cfg.Requisites))
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(o.cfg.EvalConcurrency)
	for i, req := range o.cfg.Requisites {
		g.Go(func() error {
			result, err := o.criteria.EvaluateCriterion(gctx, candidateID, req, profile)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run.enter(StateAggregating)
	overall := OverallPercent(o.cfg.Requisites, results)

	run.enter(StateSummarizing)
	summary, err := o.summarizer.Summarize(runCtx, candidateID, overall, results)
	if err != nil {
		return nil, err
	}

	// A cancellation racing the final stage still discards the run.
	if err := runCtx.Err(); err != nil {
		return nil, err
	}

	result := &models.EvaluationResult{
		ID:             uuid.New(),
		CandidateID:    candidateID,
		OverallPercent: overall,
		CreatedAt:      time.Now(),
	}
	if err := result.SetCriteria(results); err != nil {
		return nil, fmt.Errorf("encode criteria: %w", err)
	}
	if err := result.SetSummary(summary); err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	if err := o.results.Create(result); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	run.enter(StateDone)
	run.log.Info("evaluation complete",
		zap.String("result_id", result.ID.String()),
		zap.Int("overall_percent", overall))
	return result, nil
}

func (o *orchestrator) failCandidate(run *pipelineRun, cand *models.Candidate) {
	run.enter(StateFailed)
	cand.Status = models.IngestionFailed
	if err := o.candidates.Update(cand); err != nil {
		run.log.Error("failed to record candidate failure", zap.Error(err))
	}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

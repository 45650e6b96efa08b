package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
)

// Worker drains the evaluation job queue. Jobs are also picked up by a
// poller so queued work survives a restart.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(jobID uuid.UUID)
}

type worker struct {
	jobRepo      repositories.EvaluationJobRepository
	orchestrator Orchestrator
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	log          *zap.Logger
}

func NewWorker(
	jobRepo repositories.EvaluationJobRepository,
	orchestrator Orchestrator,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &worker{
		jobRepo:      jobRepo,
		orchestrator: orchestrator,
		jobQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		log:          log,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)
}

// Stop implements Worker. Blocks until in-flight jobs finish.
func (w *worker) Stop() {
	w.log.Info("stopping worker")
	close(w.stopChan)
	w.wg.Wait()
	w.log.Info("worker stopped")
}

// EnqueueJob implements Worker.
func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case w.jobQueue <- jobID:
		w.log.Debug("job enqueued", zap.String("job_id", jobID.String()))
	case <-w.stopChan:
		w.log.Warn("worker stopped, job stays queued for the poller", zap.String("job_id", jobID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case jobID := <-w.jobQueue:
			w.runJob(ctx, log, jobID)
		}
	}
}

func (w *worker) runJob(ctx context.Context, log *zap.Logger, jobID uuid.UUID) {
	job, err := w.jobRepo.FindByID(jobID)
	if err != nil {
		log.Error("failed to load job", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if job.Status != models.StatusQueued {
		// Already picked up, most likely by the poller and a worker at once.
		return
	}

	if err := w.jobRepo.MarkProcessing(job.ID); err != nil {
		log.Error("failed to mark job processing", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}

	log.Info("processing evaluation job",
		zap.String("job_id", job.ID.String()),
		zap.String("candidate_id", job.CandidateID.String()))

	result, err := w.orchestrator.Evaluate(ctx, job.CandidateID)
	if err != nil {
		message := err.Error()
		if errors.Is(err, context.Canceled) {
			message = "evaluation cancelled: candidate was re-ingested"
		}
		if markErr := w.jobRepo.MarkFailed(job.ID, message); markErr != nil {
			log.Error("failed to mark job failed", zap.String("job_id", jobID.String()), zap.Error(markErr))
		}
		log.Warn("evaluation job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	if err := w.jobRepo.MarkCompleted(job.ID, result.ID); err != nil {
		log.Error("failed to mark job completed", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	log.Info("evaluation job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("result_id", result.ID.String()))
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pending, err := w.jobRepo.FindPending(10)
			if err != nil {
				w.log.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}
			for _, job := range pending {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

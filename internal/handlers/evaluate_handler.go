package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
	"shortlister/internal/services"
)

type EvaluationHandler struct {
	jobRepo       repositories.EvaluationJobRepository
	candidateRepo repositories.CandidateRepository
	worker        services.Worker
}

func NewEvaluationHandler(
	jobRepo repositories.EvaluationJobRepository,
	candidateRepo repositories.CandidateRepository,
	worker services.Worker,
) *EvaluationHandler {
	return &EvaluationHandler{
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
		worker:        worker,
	}
}

// HandleEvaluate handles POST /evaluate. The evaluation runs async; the
// response carries the job id to poll on GET /result/:id.
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	var req models.EvaluateRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request payload",
		})
	}

	if req.CandidateID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "candidate_id is required",
		})
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid candidate_id format",
		})
	}

	candidate, err := h.candidateRepo.FindByID(candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "candidate not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load candidate",
		})
	}

	if candidate.Status != models.IngestionIngested {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":  "candidate resume has not been ingested",
			"status": candidate.Status,
		})
	}

	job := &models.EvaluationJob{
		ID:          uuid.New(),
		CandidateID: candidate.ID,
		Status:      models.StatusQueued,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := h.jobRepo.Create(job); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create evaluation job",
		})
	}

	h.worker.EnqueueJob(job.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.EvaluateResponse{
		ID:          job.ID.String(),
		CandidateID: candidate.ID.String(),
		Status:      string(models.StatusQueued),
	})
}

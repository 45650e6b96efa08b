package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
)

type ResultHandler struct {
	jobRepo    repositories.EvaluationJobRepository
	resultRepo repositories.ResultRepository
}

// maxResultsLimit caps the page size of the results listing.
const maxResultsLimit = 100

func NewResultHandler(
	jobRepo repositories.EvaluationJobRepository,
	resultRepo repositories.ResultRepository,
) *ResultHandler {
	return &ResultHandler{
		jobRepo:    jobRepo,
		resultRepo: resultRepo,
	}
}

// HandleGetJob handles GET /result/:id. Completed jobs embed the full
// result payload; failed jobs carry the error message.
func (h *ResultHandler) HandleGetJob(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid job ID format",
		})
	}

	job, err := h.jobRepo.FindByID(jobID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "evaluation job not found",
		})
	}

	response := models.JobStatusResponse{
		ID:          job.ID.String(),
		CandidateID: job.CandidateID.String(),
		Status:      string(job.Status),
	}

	if job.Status == models.StatusCompleted && job.ResultID != nil {
		result, err := h.resultRepo.FindByID(*job.ResultID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "result record missing for completed job",
			})
		}
		payload, err := buildResultPayload(result)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "stored result is unreadable",
			})
		}
		response.Result = payload
	}

	if job.Status == models.StatusFailed {
		response.ErrorMessage = job.ErrorMessage
	}

	return c.JSON(response)
}

// HandleListResults handles GET /results, newest first.
func (h *ResultHandler) HandleListResults(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", maxResultsLimit)
	if limit < 1 || limit > maxResultsLimit {
		limit = maxResultsLimit
	}

	results, err := h.resultRepo.ListNewest(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list results",
		})
	}

	items := make([]models.ResultListItem, 0, len(results))
	for _, result := range results {
		items = append(items, models.ResultListItem{
			ID:             result.ID.String(),
			CandidateID:    result.CandidateID.String(),
			OverallPercent: result.OverallPercent,
			CreatedAt:      result.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"results": items,
		"count":   len(items),
	})
}

// HandleGetResult handles GET /results/:id.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	resultID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid result ID format",
		})
	}

	result, err := h.resultRepo.FindByID(resultID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "result not found",
		})
	}

	payload, err := buildResultPayload(result)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "stored result is unreadable",
		})
	}

	return c.JSON(payload)
}

func buildResultPayload(result *models.EvaluationResult) (*models.ResultPayload, error) {
	criteria, err := result.Criteria()
	if err != nil {
		return nil, err
	}
	summary, err := result.Summary()
	if err != nil {
		return nil, err
	}

	return &models.ResultPayload{
		ID:             result.ID.String(),
		CandidateID:    result.CandidateID.String(),
		OverallPercent: result.OverallPercent,
		PerCriterion:   criteria,
		Summary:        summary,
		CreatedAt:      result.CreatedAt,
	}, nil
}

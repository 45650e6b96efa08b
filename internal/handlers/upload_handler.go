package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
	"shortlister/internal/services"
)

type UploadHandler struct {
	candidateRepo  repositories.CandidateRepository
	storageService services.StorageService
	extractor      services.TextExtractor
	orchestrator   services.Orchestrator
	maxFileSize    int64
	log            *zap.Logger
}

func NewUploadHandler(
	candidateRepo repositories.CandidateRepository,
	storageService services.StorageService,
	extractor services.TextExtractor,
	orchestrator services.Orchestrator,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		candidateRepo:  candidateRepo,
		storageService: storageService,
		extractor:      extractor,
		orchestrator:   orchestrator,
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleUpload handles POST /upload. The resume is stored, its text
// extracted, then chunked and indexed synchronously so the response can
// report chunk counts. Passing an existing candidate_id form value
// replaces that candidate's resume and cancels any evaluation in flight
// for it.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("resume")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing 'resume' file in multipart form",
		})
	}

	if fileHeader.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("resume file too large, max size: %d bytes", h.maxFileSize),
		})
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".pdf" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("unsupported file extension %q, expected .pdf", ext),
		})
	}

	candidateID := uuid.New()
	if raw := c.FormValue("candidate_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid candidate_id format",
			})
		}
		candidateID = parsed
	}

	filename, filePath, err := h.storageService.SaveResume(fileHeader)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save resume: %v", err),
		})
	}

	text, err := h.extractor.ExtractText(filePath)
	if err != nil {
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to extract text from resume: %v", err),
		})
	}

	if err := h.upsertCandidateRecord(candidateID, fileHeader.Filename, filePath); err != nil {
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save candidate record",
		})
	}

	status, err := h.orchestrator.Ingest(c.UserContext(), candidateID, text)
	if err != nil {
		h.log.Warn("ingest failed",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err))
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error":        err.Error(),
			"candidate_id": candidateID.String(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(status)
}

func (h *UploadHandler) upsertCandidateRecord(id uuid.UUID, originalName, filePath string) error {
	candidate, err := h.candidateRepo.FindByID(id)
	switch {
	case err == nil:
		candidate.OriginalFileName = originalName
		candidate.FilePath = filePath
		return h.candidateRepo.Update(candidate)
	case errors.Is(err, repositories.ErrNotFound):
		return h.candidateRepo.Create(&models.Candidate{
			ID:               id,
			OriginalFileName: originalName,
			FilePath:         filePath,
			Status:           models.IngestionPending,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		})
	default:
		return err
	}
}

// statusForError maps pipeline sentinels onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrIngestion):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrIndex):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, services.ErrCandidateNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrCandidateNotIngested):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shortlister/internal/models"
)

type EvaluationJobRepository interface {
	Create(job *models.EvaluationJob) error
	FindByID(id uuid.UUID) (*models.EvaluationJob, error)
	MarkProcessing(id uuid.UUID) error
	MarkCompleted(id uuid.UUID, resultID uuid.UUID) error
	MarkFailed(id uuid.UUID, message string) error
	FindPending(limit int) ([]models.EvaluationJob, error)
}

type evaluationJobRepository struct {
	db *gorm.DB
}

func NewEvaluationJobRepository(db *gorm.DB) EvaluationJobRepository {
	return &evaluationJobRepository{db: db}
}

func (r *evaluationJobRepository) Create(job *models.EvaluationJob) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create evaluation job: %w", err)
	}
	return nil
}

func (r *evaluationJobRepository) FindByID(id uuid.UUID) (*models.EvaluationJob, error) {
	var job models.EvaluationJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find evaluation job: %w", err)
	}
	return &job, nil
}

func (r *evaluationJobRepository) MarkProcessing(id uuid.UUID) error {
	return r.updateJob(id, map[string]interface{}{
		"status":     models.StatusProcessing,
		"updated_at": time.Now(),
	})
}

func (r *evaluationJobRepository) MarkCompleted(id uuid.UUID, resultID uuid.UUID) error {
	return r.updateJob(id, map[string]interface{}{
		"status":     models.StatusCompleted,
		"result_id":  resultID,
		"updated_at": time.Now(),
	})
}

func (r *evaluationJobRepository) MarkFailed(id uuid.UUID, message string) error {
	return r.updateJob(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": message,
		"updated_at":    time.Now(),
	})
}

func (r *evaluationJobRepository) updateJob(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.EvaluationJob{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update evaluation job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("evaluation job %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *evaluationJobRepository) FindPending(limit int) ([]models.EvaluationJob, error) {
	var jobs []models.EvaluationJob
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}
	return jobs, nil
}

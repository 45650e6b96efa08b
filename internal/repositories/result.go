package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shortlister/internal/models"
)

// ResultRepository stores completed evaluation runs. Rows are append-only
// so the scoring history of a candidate stays auditable.
type ResultRepository interface {
	Create(result *models.EvaluationResult) error
	FindByID(id uuid.UUID) (*models.EvaluationResult, error)
	ListNewest(limit int) ([]models.EvaluationResult, error)
}

type resultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) Create(result *models.EvaluationResult) error {
	if err := r.db.Create(result).Error; err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

func (r *resultRepository) FindByID(id uuid.UUID) (*models.EvaluationResult, error) {
	var result models.EvaluationResult
	if err := r.db.Where("id = ?", id).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find result: %w", err)
	}
	return &result, nil
}

func (r *resultRepository) ListNewest(limit int) ([]models.EvaluationResult, error) {
	var results []models.EvaluationResult
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

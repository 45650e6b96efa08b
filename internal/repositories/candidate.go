package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shortlister/internal/models"
)

// ErrNotFound is wrapped by every lookup that misses, so callers can
// branch without knowing the storage backend.
var ErrNotFound = errors.New("record not found")

type CandidateRepository interface {
	Create(candidate *models.Candidate) error
	Update(candidate *models.Candidate) error
	UpdateProfile(id uuid.UUID, profileJSON string) error
	FindByID(id uuid.UUID) (*models.Candidate, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// Create implements CandidateRepository.
func (r *candidateRepository) Create(candidate *models.Candidate) error {
	if err := r.db.Create(candidate).Error; err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// Update implements CandidateRepository.
func (r *candidateRepository) Update(candidate *models.Candidate) error {
	candidate.UpdatedAt = time.Now()
	result := r.db.Save(candidate)
	if result.Error != nil {
		return fmt.Errorf("failed to update candidate: %w", result.Error)
	}
	return nil
}

// UpdateProfile implements CandidateRepository.
func (r *candidateRepository) UpdateProfile(id uuid.UUID, profileJSON string) error {
	result := r.db.Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"profile_json": profileJSON,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("candidate %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindByID implements CandidateRepository.
func (r *candidateRepository) FindByID(id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.Where("id = ?", id).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("candidate %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

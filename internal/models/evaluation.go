package models

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus string

const (
	StatusQueued     EvaluationStatus = "queued"
	StatusProcessing EvaluationStatus = "processing"
	StatusCompleted  EvaluationStatus = "completed"
	StatusFailed     EvaluationStatus = "failed"
)

// EvaluationJob is the async envelope around one evaluation run. The
// worker picks up queued jobs and links the stored result on completion.
type EvaluationJob struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CandidateID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"candidate_id"`
	Status       EvaluationStatus `gorm:"not null;default:'queued'" json:"status"`
	ErrorMessage *string          `gorm:"type:text" json:"error_message,omitempty"`
	ResultID     *uuid.UUID       `gorm:"type:uuid" json:"result_id,omitempty"`
	CreatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (EvaluationJob) TableName() string {
	return "evaluation_jobs"
}

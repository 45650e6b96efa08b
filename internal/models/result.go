package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CriterionResult is the judgment for a single requisite. The slice of
// results always has one entry per configured requisite, in configuration
// order, even when individual judgments failed and were replaced by a
// zero-score placeholder.
type CriterionResult struct {
	Requisite               string   `json:"criterion"`
	ScorePercent            int      `json:"score_percent"`
	Rationale               string   `json:"rationale"`
	AlternateConsiderations []string `json:"alternate_considerations"`
}

// Summary is the human-readable wrap-up of an evaluation run.
type Summary struct {
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	OverallComment string   `json:"overall_comment"`
}

// EvaluationResult is one completed evaluation run. Rows are append-only:
// re-evaluating a candidate adds a new row instead of rewriting history.
type EvaluationResult struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CandidateID    uuid.UUID `gorm:"type:uuid;not null;index" json:"candidate_id"`
	OverallPercent int       `gorm:"not null" json:"overall_percent"`
	CriteriaJSON   string    `gorm:"type:text;not null" json:"-"`
	SummaryJSON    string    `gorm:"type:text;not null" json:"-"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (EvaluationResult) TableName() string {
	return "results"
}

func (r *EvaluationResult) Criteria() ([]CriterionResult, error) {
	var criteria []CriterionResult
	if err := json.Unmarshal([]byte(r.CriteriaJSON), &criteria); err != nil {
		return nil, err
	}
	return criteria, nil
}

func (r *EvaluationResult) SetCriteria(criteria []CriterionResult) error {
	raw, err := json.Marshal(criteria)
	if err != nil {
		return err
	}
	r.CriteriaJSON = string(raw)
	return nil
}

func (r *EvaluationResult) Summary() (Summary, error) {
	var summary Summary
	if err := json.Unmarshal([]byte(r.SummaryJSON), &summary); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

func (r *EvaluationResult) SetSummary(summary Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	r.SummaryJSON = string(raw)
	return nil
}

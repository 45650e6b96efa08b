package models

import "time"

// CandidateStatus is returned by upload/ingest calls.
type CandidateStatus struct {
	CandidateID string `json:"candidate_id"`
	Status      string `json:"status"`
	Chunks      int    `json:"chunks"`
	Characters  int    `json:"characters"`
}

type EvaluateRequest struct {
	CandidateID string `json:"candidate_id"`
}

type EvaluateResponse struct {
	ID          string `json:"id"`
	CandidateID string `json:"candidate_id"`
	Status      string `json:"status"`
}

// JobStatusResponse reports an evaluation job, embedding the full result
// payload once the job has completed.
type JobStatusResponse struct {
	ID           string         `json:"id"`
	CandidateID  string         `json:"candidate_id"`
	Status       string         `json:"status"`
	Result       *ResultPayload `json:"result,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

type ResultPayload struct {
	ID             string            `json:"id"`
	CandidateID    string            `json:"candidate_id"`
	OverallPercent int               `json:"overall_percent"`
	PerCriterion   []CriterionResult `json:"per_criterion"`
	Summary        Summary           `json:"summary"`
	CreatedAt      time.Time         `json:"created_at"`
}

type ResultListItem struct {
	ID             string    `json:"id"`
	CandidateID    string    `json:"candidate_id"`
	OverallPercent int       `json:"overall_percent"`
	CreatedAt      time.Time `json:"created_at"`
}

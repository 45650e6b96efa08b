package services

import "errors"

// Sentinel errors for the pipeline. Handlers map these onto HTTP statuses
// and the worker uses them to decide how to report a failed job.
var (
	// ErrIngestion marks documents that cannot be chunked: empty after
	// normalization or below the configured minimum length. Fatal for the
	// upload that raised it.
	ErrIngestion = errors.New("document ingestion failed")

	// ErrIndex marks vector index writes that kept failing after the
	// configured number of attempts.
	ErrIndex = errors.New("vector index unavailable")

	// ErrConfiguration marks invalid pipeline configuration. Raised at
	// startup, never during a run.
	ErrConfiguration = errors.New("invalid pipeline configuration")

	// ErrCandidateNotFound is returned when an evaluation is requested for
	// an unknown candidate id.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrCandidateNotIngested is returned when an evaluation is requested
	// before the candidate's resume has been ingested successfully.
	ErrCandidateNotIngested = errors.New("candidate not ingested")
)

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
)

func doRequest(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// fakeCandidateRepo mirrors the repository contract with map storage.
type fakeCandidateRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Candidate
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{rows: make(map[uuid.UUID]models.Candidate)}
}

func (r *fakeCandidateRepo) Create(candidate *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[candidate.ID] = *candidate
	return nil
}

func (r *fakeCandidateRepo) Update(candidate *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate.UpdatedAt = time.Now()
	r.rows[candidate.ID] = *candidate
	return nil
}

func (r *fakeCandidateRepo) UpdateProfile(id uuid.UUID, profileJSON string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("candidate %s: %w", id, repositories.ErrNotFound)
	}
	row.ProfileJSON = profileJSON
	r.rows[id] = row
	return nil
}

func (r *fakeCandidateRepo) FindByID(id uuid.UUID) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, repositories.ErrNotFound)
	}
	return &row, nil
}

// fakeJobRepo keeps evaluation jobs in memory.
type fakeJobRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.EvaluationJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{rows: make(map[uuid.UUID]models.EvaluationJob)}
}

func (r *fakeJobRepo) Create(job *models.EvaluationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[job.ID] = *job
	return nil
}

func (r *fakeJobRepo) FindByID(id uuid.UUID) (*models.EvaluationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("evaluation job %s: %w", id, repositories.ErrNotFound)
	}
	return &row, nil
}

func (r *fakeJobRepo) MarkProcessing(id uuid.UUID) error {
	return r.mutate(id, func(job *models.EvaluationJob) {
		job.Status = models.StatusProcessing
	})
}

func (r *fakeJobRepo) MarkCompleted(id uuid.UUID, resultID uuid.UUID) error {
	return r.mutate(id, func(job *models.EvaluationJob) {
		job.Status = models.StatusCompleted
		job.ResultID = &resultID
	})
}

func (r *fakeJobRepo) MarkFailed(id uuid.UUID, message string) error {
	return r.mutate(id, func(job *models.EvaluationJob) {
		job.Status = models.StatusFailed
		job.ErrorMessage = &message
	})
}

func (r *fakeJobRepo) mutate(id uuid.UUID, apply func(job *models.EvaluationJob)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("evaluation job %s: %w", id, repositories.ErrNotFound)
	}
	apply(&row)
	row.UpdatedAt = time.Now()
	r.rows[id] = row
	return nil
}

func (r *fakeJobRepo) FindPending(limit int) ([]models.EvaluationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var jobs []models.EvaluationJob
	for _, row := range r.rows {
		if row.Status == models.StatusQueued {
			jobs = append(jobs, row)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// fakeResultRepo keeps results in an append-only slice.
type fakeResultRepo struct {
	mu   sync.Mutex
	rows []models.EvaluationResult
}

func (r *fakeResultRepo) Create(result *models.EvaluationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *result)
	return nil
}

func (r *fakeResultRepo) FindByID(id uuid.UUID) (*models.EvaluationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, fmt.Errorf("result %s: %w", id, repositories.ErrNotFound)
}

func (r *fakeResultRepo) ListNewest(limit int) ([]models.EvaluationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]models.EvaluationResult, len(r.rows))
	copy(rows, r.rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// stubWorker records enqueued job ids.
type stubWorker struct {
	mu   sync.Mutex
	jobs []uuid.UUID
}

func (w *stubWorker) Start(ctx context.Context) {}

func (w *stubWorker) Stop() {}

func (w *stubWorker) EnqueueJob(jobID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.jobs = append(w.jobs, jobID)
}

func (w *stubWorker) enqueued() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]uuid.UUID(nil), w.jobs...)
}

// stubOrchestrator scripts Ingest and records what it was called with.
type stubOrchestrator struct {
	mu         sync.Mutex
	ingestErr  error
	candidates []uuid.UUID
	texts      []string
}

func (s *stubOrchestrator) Ingest(ctx context.Context, candidateID uuid.UUID, text string) (*models.CandidateStatus, error) {
	s.mu.Lock()
	s.candidates = append(s.candidates, candidateID)
	s.texts = append(s.texts, text)
	err := s.ingestErr
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &models.CandidateStatus{
		CandidateID: candidateID.String(),
		Status:      string(models.IngestionIngested),
		Chunks:      3,
		Characters:  len(text),
	}, nil
}

func (s *stubOrchestrator) Evaluate(ctx context.Context, candidateID uuid.UUID) (*models.EvaluationResult, error) {
	return nil, fmt.Errorf("evaluate not scripted")
}

func (s *stubOrchestrator) lastCandidate() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.candidates) == 0 {
		return uuid.Nil
	}
	return s.candidates[len(s.candidates)-1]
}

func (s *stubOrchestrator) lastIngestText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

// stubStorage pretends to save files and records deletions.
type stubStorage struct {
	mu      sync.Mutex
	saveErr error
	deleted []string
}

func (s *stubStorage) SaveResume(file *multipart.FileHeader) (string, string, error) {
	if s.saveErr != nil {
		return "", "", s.saveErr
	}
	return "stored_resume.pdf", "/tmp/uploads/stored_resume.pdf", nil
}

func (s *stubStorage) GetFilePath(filename string) string {
	return "/tmp/uploads/" + filename
}

func (s *stubStorage) DeleteFile(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, filename)
	return nil
}

func (s *stubStorage) EnsureUploadDir() error { return nil }

func (s *stubStorage) deletedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// stubExtractor returns canned resume text.
type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) ExtractText(filePath string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

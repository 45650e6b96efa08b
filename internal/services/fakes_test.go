package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shortlister/internal/models"
	"shortlister/internal/repositories"
)

// stubLLM scripts completions. The complete function receives the
// 1-based call number so tests can vary replies across attempts.
type stubLLM struct {
	mu       sync.Mutex
	complete func(ctx context.Context, call int, prompt string) (string, error)
	prompts  []string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	call := len(s.prompts)
	fn := s.complete
	s.mu.Unlock()

	if fn == nil {
		return "{}", nil
	}
	return fn(ctx, call, prompt)
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *stubLLM) prompt(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[i]
}

func (s *stubLLM) countPrompts(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

// fakeEmbedder derives deterministic bag-of-words vectors so similarity
// between related texts is reproducible without a model server.
type fakeEmbedder struct {
	mu          sync.Mutex
	embedCalls  int
	batchCalls  int
	failBatches int   // fail this many EmbedBatch calls before succeeding
	embedErr    error // when set, every call fails
}

func embedText(text string) []float32 {
	vec := make([]float32, 16)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,;:!?()")))
		vec[h.Sum32()%16]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(math.Sqrt(norm))
		for i := range vec {
			vec[i] /= scale
		}
	}
	return vec
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	err := f.embedErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return embedText(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	err := f.embedErr
	if err == nil && f.batchCalls <= f.failBatches {
		err = fmt.Errorf("embedding backend unavailable")
	}
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) embedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embedCalls
}

func (f *fakeEmbedder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

// fakeVectorStore keeps points in memory, keyed the same way as the real
// store so upserts stay idempotent.
type fakeVectorStore struct {
	mu          sync.Mutex
	points      map[string]ChunkPoint
	upsertCalls int
	failUpserts int // fail this many upserts before succeeding
	deleted     []string
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{points: make(map[string]ChunkPoint)}
}

func (s *fakeVectorStore) EnsureCollection(ctx context.Context) error { return nil }

func (s *fakeVectorStore) UpsertChunks(ctx context.Context, points []ChunkPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.upsertCalls <= s.failUpserts {
		return fmt.Errorf("upsert refused")
	}
	for _, p := range points {
		s.points[fmt.Sprintf("%s#%d", p.CandidateID, p.SequenceIndex)] = p
	}
	return nil
}

func (s *fakeVectorStore) QueryCandidate(ctx context.Context, vector []float32, candidateID string, k int) ([]Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hits []Evidence
	for _, p := range s.points {
		if p.CandidateID != candidateID {
			continue
		}
		hits = append(hits, Evidence{
			SequenceIndex: p.SequenceIndex,
			Text:          p.Text,
			Score:         dotProduct(vector, p.Vector),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *fakeVectorStore) DeleteCandidate(ctx context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, candidateID)
	for key, p := range s.points {
		if p.CandidateID == candidateID {
			delete(s.points, key)
		}
	}
	return nil
}

func (s *fakeVectorStore) count(candidateID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.points {
		if p.CandidateID == candidateID {
			n++
		}
	}
	return n
}

func (s *fakeVectorStore) point(candidateID string, seq int) (ChunkPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[fmt.Sprintf("%s#%d", candidateID, seq)]
	return p, ok
}

func (s *fakeVectorStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertCalls
}

func (s *fakeVectorStore) deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deleted)
}

func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		if i < len(b) {
			sum += a[i] * b[i]
		}
	}
	return sum
}

// stubRetriever returns canned evidence and records the last query.
type stubRetriever struct {
	mu        sync.Mutex
	evidence  []Evidence
	err       error
	lastQuery string
	lastK     int
}

func (r *stubRetriever) Retrieve(ctx context.Context, candidateID uuid.UUID, query string, k int) ([]Evidence, error) {
	r.mu.Lock()
	r.lastQuery = query
	r.lastK = k
	r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return r.evidence, nil
}

// fakeCandidateRepo mirrors the repository contract, including the
// ErrNotFound wrapping, with plain map storage.
type fakeCandidateRepo struct {
	mu            sync.Mutex
	rows          map[uuid.UUID]models.Candidate
	profileWrites int
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
	row.UpdatedAt = time.Now()
	r.rows[id] = row
	r.profileWrites++
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

func (r *fakeCandidateRepo) row(id uuid.UUID) models.Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

// fakeResultRepo keeps completed runs in an append-only slice.
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

func (r *fakeResultRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// fakeJobRepo keeps evaluation jobs in memory for worker tests.
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
	return r.setStatus(id, models.StatusProcessing, nil, nil)
}

func (r *fakeJobRepo) MarkCompleted(id uuid.UUID, resultID uuid.UUID) error {
	return r.setStatus(id, models.StatusCompleted, &resultID, nil)
}

func (r *fakeJobRepo) MarkFailed(id uuid.UUID, message string) error {
	return r.setStatus(id, models.StatusFailed, nil, &message)
}

func (r *fakeJobRepo) setStatus(id uuid.UUID, status models.EvaluationStatus, resultID *uuid.UUID, message *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("evaluation job %s: %w", id, repositories.ErrNotFound)
	}
	row.Status = status
	if resultID != nil {
		row.ResultID = resultID
	}
	if message != nil {
		row.ErrorMessage = message
	}
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

func (r *fakeJobRepo) status(id uuid.UUID) models.EvaluationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id].Status
}

func (r *fakeJobRepo) row(id uuid.UUID) models.EvaluationJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

// stubOrchestrator records Evaluate calls for worker tests.
type stubOrchestrator struct {
	mu        sync.Mutex
	result    *models.EvaluationResult
	err       error
	evaluated []uuid.UUID
}

func (s *stubOrchestrator) Ingest(ctx context.Context, candidateID uuid.UUID, text string) (*models.CandidateStatus, error) {
	return nil, fmt.Errorf("ingest not scripted")
}

func (s *stubOrchestrator) Evaluate(ctx context.Context, candidateID uuid.UUID) (*models.EvaluationResult, error) {
	s.mu.Lock()
	s.evaluated = append(s.evaluated, candidateID)
	result := s.result
	err := s.err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return &models.EvaluationResult{ID: uuid.New(), CandidateID: candidateID, CreatedAt: time.Now()}, nil
}

func (s *stubOrchestrator) evaluateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.evaluated)
}

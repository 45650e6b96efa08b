package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Retriever finds the chunks of one candidate most similar to a query.
// An empty result is not an error; a candidate can legitimately have no
// relevant evidence for a requisite.
type Retriever interface {
	Retrieve(ctx context.Context, candidateID uuid.UUID, query string, k int) ([]Evidence, error)
}

type vectorRetriever struct {
	embedder EmbeddingService
	store    VectorStore
	log      *zap.Logger
}

func NewRetriever(embedder EmbeddingService, store VectorStore, log *zap.Logger) Retriever {
	return &vectorRetriever{embedder: embedder, store: store, log: log}
}

func (r *vectorRetriever) Retrieve(ctx context.Context, candidateID uuid.UUID, query string, k int) ([]Evidence, error) {
	if k < 1 {
		return nil, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.QueryCandidate(ctx, vector, candidateID.String(), k)
	if err != nil {
		return nil, fmt.Errorf("query candidate chunks: %w", err)
	}

	r.log.Debug("evidence retrieved",
		zap.String("candidate_id", candidateID.String()),
		zap.Int("k", k),
		zap.Int("hits", len(results)))
	return results, nil
}

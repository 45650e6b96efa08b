package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Indexer embeds chunks and writes them to the vector store. Transient
// failures are retried a bounded number of times before the whole
// operation is reported as ErrIndex.
type Indexer interface {
	IndexChunks(ctx context.Context, candidateID uuid.UUID, chunks []Chunk) error
}

type chunkIndexer struct {
	embedder   EmbeddingService
	store      VectorStore
	attempts   int
	retryDelay time.Duration
	log        *zap.Logger
}

func NewChunkIndexer(embedder EmbeddingService, store VectorStore, cfg PipelineConfig, log *zap.Logger) Indexer {
	cfg = cfg.withDefaults()
	return &chunkIndexer{
		embedder:   embedder,
		store:      store,
		attempts:   cfg.IndexAttempts,
		retryDelay: cfg.IndexRetryDelay,
		log:        log,
	}
}

func (ci *chunkIndexer) IndexChunks(ctx context.Context, candidateID uuid.UUID, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var lastErr error
	for attempt := 1; attempt <= ci.attempts; attempt++ {
		lastErr = ci.indexOnce(ctx, candidateID, chunks, texts)
		if lastErr == nil {
			ci.log.Debug("chunks indexed",
				zap.String("candidate_id", candidateID.String()),
				zap.Int("chunks", len(chunks)),
				zap.Int("attempt", attempt))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < ci.attempts {
			ci.log.Warn("index attempt failed, retrying",
				zap.String("candidate_id", candidateID.String()),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-time.After(ci.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%w: %d attempts exhausted: %v", ErrIndex, ci.attempts, lastErr)
}

func (ci *chunkIndexer) indexOnce(ctx context.Context, candidateID uuid.UUID, chunks []Chunk, texts []string) error {
	vectors, err := ci.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
	}

	points := make([]ChunkPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = ChunkPoint{
			CandidateID:   candidateID.String(),
			SequenceIndex: chunk.SequenceIndex,
			Text:          chunk.Text,
			Vector:        vectors[i],
		}
	}

	if err := ci.store.UpsertChunks(ctx, points); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

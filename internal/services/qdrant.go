package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

// ChunkPoint is one chunk ready for indexing: text plus its embedding,
// keyed by candidate and position.
type ChunkPoint struct {
	CandidateID   string
	SequenceIndex int
	Text          string
	Vector        []float32
}

// Evidence is one retrieved chunk with its similarity score.
type Evidence struct {
	SequenceIndex int
	Text          string
	Score         float32
}

// VectorStore is the chunk index. Upserts are idempotent: the point id is
// derived from (candidate id, sequence index), so re-indexing the same
// resume overwrites instead of duplicating.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	UpsertChunks(ctx context.Context, points []ChunkPoint) error
	QueryCandidate(ctx context.Context, vector []float32, candidateID string, k int) ([]Evidence, error)
	DeleteCandidate(ctx context.Context, candidateID string) error
}

type qdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
	timeout    time.Duration
	log        *zap.Logger
}

// NewQdrantStore connects to Qdrant over gRPC. The URL is parsed for
// host, port and TLS; the gRPC port 6334 is assumed when none is given.
func NewQdrantStore(urlStr, apiKey, collection string, vectorSize uint64, timeout time.Duration, log *zap.Logger) (VectorStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &qdrantStore{
		client:     client,
		collection: collection,
		vectorSize: vectorSize,
		timeout:    timeout,
		log:        log,
	}, nil
}

// chunkPointID derives a stable point id from candidate and position so
// that re-ingesting the same resume upserts in place.
func chunkPointID(candidateID string, sequenceIndex int) string {
	name := fmt.Sprintf("%s#%d", candidateID, sequenceIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (q *qdrantStore) EnsureCollection(ctx context.Context) error {
	ctx, cancel := callContext(ctx, q.timeout)
	defer cancel()

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		q.log.Debug("qdrant collection already exists", zap.String("collection", q.collection))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	q.log.Info("qdrant collection created", zap.String("collection", q.collection))
	return nil
}

func (q *qdrantStore) UpsertChunks(ctx context.Context, points []ChunkPoint) error {
	if len(points) == 0 {
		return nil
	}

	ctx, cancel := callContext(ctx, q.timeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(chunkPointID(p.CandidateID, p.SequenceIndex)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"candidate_id":   p.CandidateID,
				"sequence_index": p.SequenceIndex,
				"text":           p.Text,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

func (q *qdrantStore) QueryCandidate(ctx context.Context, vector []float32, candidateID string, k int) ([]Evidence, error) {
	ctx, cancel := callContext(ctx, q.timeout)
	defer cancel()

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("candidate_id", candidateID),
		},
	}

	searchResult, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	results := make([]Evidence, 0, len(searchResult))
	for _, point := range searchResult {
		evidence := Evidence{Score: point.Score}

		if text, ok := point.Payload["text"]; ok {
			if val, ok := text.GetKind().(*qdrant.Value_StringValue); ok {
				evidence.Text = val.StringValue
			}
		}
		if seq, ok := point.Payload["sequence_index"]; ok {
			if val, ok := seq.GetKind().(*qdrant.Value_IntegerValue); ok {
				evidence.SequenceIndex = int(val.IntegerValue)
			}
		}

		results = append(results, evidence)
	}
	return results, nil
}

func (q *qdrantStore) DeleteCandidate(ctx context.Context, candidateID string) error {
	ctx, cancel := callContext(ctx, q.timeout)
	defer cancel()

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("candidate_id", candidateID),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: filter,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete candidate points: %w", err)
	}
	return nil
}

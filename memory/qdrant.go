package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hupe1980/prism/core"
)

// QdrantOptions configures the Qdrant-backed store.
type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string

	// VectorSize is the embedding dimensionality enforced by the collection.
	VectorSize int

	// RequestTimeout bounds every Qdrant call. Zero disables the bound.
	RequestTimeout time.Duration

	// MaxMessageSize caps gRPC messages in both directions. Large batches
	// of high-dimensional vectors exceed the 4 MiB gRPC default.
	MaxMessageSize int
}

// QdrantStore persists memories in a single Qdrant collection. Every point
// carries a user_id payload field and every search runs behind a must-match
// filter on it, so records are filtered by user before ranking.
type QdrantStore struct {
	client *qdrant.Client
	opts   QdrantOptions
}

var _ core.MemoryStore = (*QdrantStore)(nil)

// NewQdrantStore connects to Qdrant and ensures the collection exists with a
// cosine-distance vector index of the configured size.
func NewQdrantStore(ctx context.Context, optFns ...func(o *QdrantOptions)) (*QdrantStore, error) {
	opts := QdrantOptions{
		Host:           "localhost",
		Port:           6334,
		Collection:     "user_memories",
		VectorSize:     1536,
		RequestTimeout: 30 * time.Second,
		MaxMessageSize: 32 * 1024 * 1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	grpcOptions := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(opts.MaxMessageSize),
			grpc.MaxCallSendMsgSize(opts.MaxMessageSize),
		),
	}
	// Custom dial options replace the client's defaults, so non-TLS
	// connections need explicit insecure credentials.
	if !opts.UseTLS {
		grpcOptions = append(grpcOptions, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:        opts.Host,
		Port:        opts.Port,
		APIKey:      opts.APIKey,
		UseTLS:      opts.UseTLS,
		GrpcOptions: grpcOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{client: client, opts: opts}
	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error { return s.client.Close() }

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.opts.Collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.opts.Collection, err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.opts.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.opts.VectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.opts.Collection, err)
	}
	return nil
}

// AddMemory implements core.MemoryStore. The write waits for the point to be
// durably applied before returning.
func (s *QdrantStore) AddMemory(ctx context.Context, userID, text string, embedding []float32, metadata map[string]any) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	payload := map[string]any{
		"user_id":   userID,
		"text":      text,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range metadata {
		payload[k] = v
	}

	id := uuid.NewString()
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.opts.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(embedding...),
			Payload: qdrant.NewValueMap(payload),
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to add memory: %w", err)
	}
	return id, nil
}

// SearchMemories implements core.MemoryStore.
func (s *QdrantStore) SearchMemories(ctx context.Context, userID string, embedding []float32, k int) ([]core.SearchResult, error) {
	if k <= 0 {
		return []core.SearchResult{}, nil
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.opts.Collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(k)),
		Filter:         userFilter(userID),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	results := make([]core.SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, core.SearchResult{
			Text:     point.Payload["text"].GetStringValue(),
			Score:    point.Score,
			Metadata: payloadMetadata(point.Payload),
		})
	}
	return results, nil
}

// DeleteUser implements core.MemoryStore. Counts the user's points exactly,
// then deletes them by the same filter. The two calls are not atomic; a write
// landing between them skews the reported count, which erasure tolerates
// since the delete itself covers every point matching the filter.
func (s *QdrantStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	filter := userFilter(userID)

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.opts.Collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count memories for user %s: %w", userID, err)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.opts.Collection,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories for user %s: %w", userID, err)
	}

	return int(count), nil
}

func (s *QdrantStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.RequestTimeout)
}

func userFilter(userID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "user_id",
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: userID},
					},
				},
			},
		}},
	}
}

func payloadMetadata(payload map[string]*qdrant.Value) map[string]any {
	metadata := make(map[string]any, len(payload))
	for key, value := range payload {
		if key == "text" {
			continue
		}
		metadata[key] = valueToAny(value)
	}
	return metadata
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return v.String()
	}
}

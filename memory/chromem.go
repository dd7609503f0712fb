package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/hupe1980/prism/core"
)

// ChromemOptions configures the embedded chromem-go store.
type ChromemOptions struct {
	// Path is the persistence directory. Empty means a purely in-memory
	// database that is lost on process exit.
	Path string

	// Compress enables gzip compression of persisted documents.
	Compress bool
}

// ChromemStore persists memories in an embedded chromem-go database with one
// collection per user. Isolation holds structurally: a search only ever opens
// the requesting user's collection, and erasure drops the whole collection.
type ChromemStore struct {
	db   *chromem.DB
	opts ChromemOptions
}

var _ core.MemoryStore = (*ChromemStore)(nil)

// NewChromemStore creates a chromem-backed memory store.
func NewChromemStore(optFns ...func(o *ChromemOptions)) (*ChromemStore, error) {
	opts := ChromemOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		db  *chromem.DB
		err error
	)
	if opts.Path != "" {
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db at %s: %w", opts.Path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	return &ChromemStore{db: db, opts: opts}, nil
}

// AddMemory implements core.MemoryStore.
func (s *ChromemStore) AddMemory(ctx context.Context, userID, text string, embedding []float32, metadata map[string]any) (string, error) {
	collection, err := s.db.GetOrCreateCollection(userCollection(userID), nil, noEmbedding)
	if err != nil {
		return "", fmt.Errorf("failed to open collection for user %s: %w", userID, err)
	}

	meta := stringifyMetadata(metadata)
	meta["user_id"] = userID
	meta["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	id := uuid.NewString()
	doc := chromem.Document{
		ID:        id,
		Content:   text,
		Metadata:  meta,
		Embedding: embedding,
	}

	// Concurrency of 1: the embedding is precomputed, nothing to parallelize.
	if err := collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return "", fmt.Errorf("failed to add memory: %w", err)
	}

	return id, nil
}

// SearchMemories implements core.MemoryStore.
func (s *ChromemStore) SearchMemories(ctx context.Context, userID string, embedding []float32, k int) ([]core.SearchResult, error) {
	if k <= 0 {
		return []core.SearchResult{}, nil
	}

	collection := s.db.GetCollection(userCollection(userID), noEmbedding)
	if collection == nil {
		return []core.SearchResult{}, nil
	}

	// chromem rejects nResults greater than the document count.
	count := collection.Count()
	if count == 0 {
		return []core.SearchResult{}, nil
	}
	if k > count {
		k = count
	}

	hits, err := collection.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	results := make([]core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		metadata := make(map[string]any, len(hit.Metadata))
		for key, value := range hit.Metadata {
			metadata[key] = value
		}
		results = append(results, core.SearchResult{
			Text:     hit.Content,
			Score:    hit.Similarity,
			Metadata: metadata,
		})
	}
	return results, nil
}

// DeleteUser implements core.MemoryStore. Dropping the user's collection
// removes the records and the per-user index in one step.
func (s *ChromemStore) DeleteUser(_ context.Context, userID string) (int, error) {
	name := userCollection(userID)

	collection := s.db.GetCollection(name, noEmbedding)
	if collection == nil {
		return 0, nil
	}
	count := collection.Count()

	if err := s.db.DeleteCollection(name); err != nil {
		return 0, fmt.Errorf("failed to delete collection for user %s: %w", userID, err)
	}
	return count, nil
}

func userCollection(userID string) string { return "user_" + userID }

// noEmbedding satisfies chromem's embedding hook. Every document and query
// carries a precomputed vector, so it must never be reached.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings must be precomputed")
}

func stringifyMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		out[k] = fmt.Sprint(v)
	}
	return out
}

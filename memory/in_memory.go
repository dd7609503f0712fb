package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/prism/core"
)

// InMemoryStore is a process-local MemoryStore ranking records by cosine
// similarity over a per-user slice. Suitable for tests and demos; use the
// chromem or Qdrant store for anything that must survive a restart.
//
// Concurrency: protected by RWMutex. Records are copied on write and on read
// so callers can never alias internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]core.MemoryRecord // userID -> records
}

var _ core.MemoryStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-process memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]core.MemoryRecord)}
}

// AddMemory implements core.MemoryStore.
func (m *InMemoryStore) AddMemory(_ context.Context, userID, text string, embedding []float32, metadata map[string]any) (string, error) {
	record := core.MemoryRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Embedding: append([]float32(nil), embedding...),
		Timestamp: time.Now().UTC(),
		Metadata:  copyMetadata(metadata),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = append(m.records[userID], record)

	return record.ID, nil
}

// SearchMemories implements core.MemoryStore. Only the requesting user's
// records are scored, so cross-user leakage is impossible by construction.
func (m *InMemoryStore) SearchMemories(_ context.Context, userID string, embedding []float32, k int) ([]core.SearchResult, error) {
	if k <= 0 {
		return []core.SearchResult{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	userRecords := m.records[userID]
	results := make([]core.SearchResult, 0, len(userRecords))
	for _, record := range userRecords {
		results = append(results, core.SearchResult{
			Text:     record.Text,
			Score:    cosineSimilarity(embedding, record.Embedding),
			Metadata: copyMetadata(record.Metadata),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteUser implements core.MemoryStore.
func (m *InMemoryStore) DeleteUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.records[userID])
	delete(m.records, userID)
	return n, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func copyMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

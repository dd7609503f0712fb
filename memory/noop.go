package memory

import (
	"context"

	"github.com/hupe1980/prism/core"
)

// NoOpStore is the MemoryStore used when memory is disabled. Writes report
// core.ErrMemoryDisabled, searches come back empty, erasure removes nothing.
// The pipeline treats all of this as benign degradation.
type NoOpStore struct{}

var _ core.MemoryStore = (*NoOpStore)(nil)

// NewNoOpStore creates a disabled memory store.
func NewNoOpStore() *NoOpStore { return &NoOpStore{} }

// AddMemory implements core.MemoryStore.
func (NoOpStore) AddMemory(context.Context, string, string, []float32, map[string]any) (string, error) {
	return "", core.ErrMemoryDisabled
}

// SearchMemories implements core.MemoryStore.
func (NoOpStore) SearchMemories(context.Context, string, []float32, int) ([]core.SearchResult, error) {
	return []core.SearchResult{}, nil
}

// DeleteUser implements core.MemoryStore.
func (NoOpStore) DeleteUser(context.Context, string) (int, error) {
	return 0, nil
}

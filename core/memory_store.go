package core

import (
	"context"
	"time"
)

// MemoryRecord is a condensed, embedded representation of a past user
// interaction. Records are owned by the MemoryStore and deleted only by an
// explicit user-data erasure, which removes every record matching UserID and
// any derived per-user index structures.
type MemoryRecord struct {
	ID        string
	UserID    string
	Text      string
	Embedding []float32
	Timestamp time.Time
	Metadata  map[string]any
}

// SearchResult is a retrieved memory with a relevance score and the stored
// metadata payload.
type SearchResult struct {
	Text     string
	Score    float32
	Metadata map[string]any
}

// MemoryStore persists condensed user history as (text, embedding) pairs and
// retrieves the nearest prior entries for a user.
//
// Isolation contract: SearchMemories must never return a record stored under a
// different user ID, regardless of vector proximity. Implementations filter by
// user before ranking (payload filter or per-user index), never rank-then-filter.
//
// Memory is an optional enrichment: callers treat every returned error as a
// degradation signal, not a pipeline failure.
type MemoryStore interface {
	// AddMemory durably persists a record before returning and yields its id.
	AddMemory(ctx context.Context, userID, text string, embedding []float32, metadata map[string]any) (string, error)

	// SearchMemories returns up to k records for the user ranked by
	// similarity to the query embedding.
	SearchMemories(ctx context.Context, userID string, embedding []float32, k int) ([]SearchResult, error)

	// DeleteUser removes all records for the user, including any per-user
	// index artifacts, and reports how many records were removed.
	DeleteUser(ctx context.Context, userID string) (int, error)
}

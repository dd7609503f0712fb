package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/model"
)

// RecallTool retrieves a user's nearest stored memories for a free-text
// query. The query is embedded with the configured model, then searched with
// the store's user isolation in force.
type RecallTool struct {
	model model.Model
	store core.MemoryStore
	topK  int
}

var _ Tool = (*RecallTool)(nil)

// NewRecallTool creates a memory recall tool. topK bounds the result count
// when the caller does not pass an explicit k.
func NewRecallTool(m model.Model, store core.MemoryStore, topK int) *RecallTool {
	if topK <= 0 {
		topK = 3
	}
	return &RecallTool{model: m, store: store, topK: topK}
}

// Name implements Tool.
func (t *RecallTool) Name() string { return "recall_memories" }

// Description implements Tool.
func (t *RecallTool) Description() string {
	return "Retrieve a user's most similar stored memories for a query"
}

// Parameters implements Tool.
func (t *RecallTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]any{"type": "string", "description": "The owning user"},
			"query":   map[string]any{"type": "string", "description": "Free-text query to match against stored memories"},
			"k":       map[string]any{"type": "number", "description": "Maximum number of results"},
		},
		"required": []string{"user_id", "query"},
	}
}

// Call implements Tool.
func (t *RecallTool) Call(ctx context.Context, args map[string]any) (any, error) {
	userID, _ := args["user_id"].(string)
	query, _ := args["query"].(string)
	if userID == "" || query == "" {
		return nil, NewToolError(t.Name(), "user_id and query are required", "VALIDATION_ERROR")
	}

	k := t.topK
	if raw, ok := args["k"].(float64); ok && raw > 0 {
		k = int(raw)
	}

	embedding, err := t.model.Embed(ctx, query)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("embedding failed: %v", err), "EXECUTION_ERROR")
	}

	results, err := t.store.SearchMemories(ctx, userID, embedding, k)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("memory search failed: %v", err), "EXECUTION_ERROR")
	}
	return results, nil
}

package tool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/memory"
	"github.com/hupe1980/prism/model"
	"github.com/hupe1980/prism/ratelimit"
)

func echoTool() *FunctionTool {
	return NewFunctionTool(
		"echo",
		"Return the given text unchanged",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)
}

func TestFunctionToolCall(t *testing.T) {
	result, err := echoTool().Call(context.Background(), map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestFunctionToolValidation(t *testing.T) {
	_, err := echoTool().Call(context.Background(), map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "echo", toolErr.Tool)
}

func TestFunctionToolExecutionError(t *testing.T) {
	failing := NewFunctionTool("boom", "always fails", map[string]any{"type": "object"},
		func(context.Context, map[string]any) (any, error) {
			return nil, fmt.Errorf("kaput")
		})

	_, err := failing.Call(context.Background(), nil)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

func TestFunctionToolPreservesToolError(t *testing.T) {
	custom := NewToolError("custom", "already wrapped", "CUSTOM_CODE")
	failing := NewFunctionTool("custom", "fails with tool error", map[string]any{"type": "object"},
		func(context.Context, map[string]any) (any, error) {
			return nil, custom
		})

	_, err := failing.Call(context.Background(), nil)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "CUSTOM_CODE", toolErr.Code)
}

func TestRouterUnknownTool(t *testing.T) {
	router := NewRouter(nil)

	_, err := router.Call(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRouterDispatch(t *testing.T) {
	router := NewRouter([]Tool{echoTool()})

	result, err := router.Call(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestRouterRateLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(2, func(o *ratelimit.Options) {
		o.Window = time.Minute
		o.Now = func() time.Time { return now }
	})
	router := NewRouter([]Tool{echoTool()}, func(o *RouterOptions) {
		o.Limiter = limiter
	})

	args := map[string]any{"text": "x"}
	for i := 0; i < 2; i++ {
		_, err := router.Call(context.Background(), "echo", args)
		require.NoError(t, err)
	}

	_, err := router.Call(context.Background(), "echo", args)
	assert.ErrorIs(t, err, ErrRateLimited)

	// The window slides; a minute later the tool is callable again.
	now = now.Add(61 * time.Second)
	_, err = router.Call(context.Background(), "echo", args)
	assert.NoError(t, err)
}

func TestRouterRateLimitPerTool(t *testing.T) {
	limiter := ratelimit.New(1)
	router := NewRouter([]Tool{
		echoTool(),
		NewFunctionTool("other", "another tool", map[string]any{"type": "object"},
			func(context.Context, map[string]any) (any, error) { return "ok", nil }),
	}, func(o *RouterOptions) {
		o.Limiter = limiter
	})

	_, err := router.Call(context.Background(), "echo", map[string]any{"text": "x"})
	require.NoError(t, err)

	// echo is exhausted, other is not.
	_, err = router.Call(context.Background(), "echo", map[string]any{"text": "x"})
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = router.Call(context.Background(), "other", nil)
	assert.NoError(t, err)
}

func TestSentimentTool(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.AddResponse("sentiment", `{"sentiment": "positive", "score": 0.9, "rationale": "upbeat phrasing"}`)

	st := NewSentimentTool(m)
	result, err := st.Call(context.Background(), map[string]any{"text": "what a great day"})
	require.NoError(t, err)

	fields, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "positive", fields["sentiment"])
}

func TestSentimentToolUnparseable(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.AddResponse("sentiment", "I cannot answer in JSON, sorry")

	_, err := NewSentimentTool(m).Call(context.Background(), map[string]any{"text": "hm"})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "PARSE_ERROR", toolErr.Code)
}

func TestSentimentToolMissingText(t *testing.T) {
	_, err := NewSentimentTool(model.NewMockModel("mock-model", "mock")).Call(context.Background(), nil)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestRecallTool(t *testing.T) {
	ctx := context.Background()
	m := model.NewMockModel("mock-model", "mock")
	store := memory.NewInMemoryStore()

	embedding, err := m.Embed(ctx, "stressful week")
	require.NoError(t, err)
	_, err = store.AddMemory(ctx, "alice", "stressful week", embedding, nil)
	require.NoError(t, err)

	rt := NewRecallTool(m, store, 3)
	result, err := rt.Call(ctx, map[string]any{"user_id": "alice", "query": "stressful week"})
	require.NoError(t, err)

	results, ok := result.([]core.SearchResult)
	require.True(t, ok)
	require.Len(t, results, 1)
	assert.Equal(t, "stressful week", results[0].Text)
}

func TestRecallToolEmbedFailure(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.FailEmbedWith(errors.New("no embedding backend"))

	rt := NewRecallTool(m, memory.NewInMemoryStore(), 3)
	_, err := rt.Call(context.Background(), map[string]any{"user_id": "alice", "query": "x"})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/memory"
	"github.com/hupe1980/prism/model"
	"github.com/hupe1980/prism/prompt"
)

// Distinct phrases from each agent template, used to key canned responses.
const (
	pastMarker        = "emotional history"
	presentMarker     = "current emotional state"
	futureMarker      = "emotional trajectory"
	integrationMarker = "three independent analyses"
)

func newTestModel() *model.MockModel {
	m := model.NewMockModel("mock-model", "mock")
	m.AddResponse(pastMarker, `{"analysis_summary": "a turbulent year", "key_events": ["move"], "dominant_emotions": ["worry"], "triggers": ["deadlines"], "coping_strategies": ["running"], "confidence": 0.8}`)
	m.AddResponse(presentMarker, `{"state_summary": "tense but hopeful", "current_emotions": ["tension"], "intensity": 6, "needs": ["rest"], "confidence": 0.7}`)
	m.AddResponse(futureMarker, `{"projection_summary": "gradual recovery", "likely_scenarios": ["stabilizing"], "opportunities": ["new role"], "recommendations": ["keep running"], "confidence": 0.6}`)
	m.AddResponse(integrationMarker, `{"integrated_summary": "recovering from a turbulent year", "insights": ["exercise helps"], "guidance": ["protect sleep"], "confidence": 0.75}`)
	return m
}

// flakyModel fails Generate for prompts containing a marker and delegates
// everything else to the wrapped mock.
type flakyModel struct {
	*model.MockModel
	failMarker string
	err        error
}

func (f *flakyModel) Generate(ctx context.Context, req model.Request) (string, error) {
	if strings.Contains(req.Prompt, f.failMarker) {
		return "", f.err
	}
	return f.MockModel.Generate(ctx, req)
}

func newTestPipeline(m model.Model, store core.MemoryStore) *Pipeline {
	return New(m, store, func(o *Options) {
		o.SyncWriteBack = true
	})
}

func TestRunSuccess(t *testing.T) {
	p := newTestPipeline(newTestModel(), memory.NewInMemoryStore())

	result, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "rough couple of months"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.TraceID)
	require.Len(t, result.Agents, 3)

	for _, role := range []string{prompt.RolePast, prompt.RolePresent, prompt.RoleFuture} {
		agent, ok := result.Agents[role]
		require.True(t, ok, "missing role %s", role)
		assert.False(t, agent.Degraded(), "role %s unexpectedly degraded", role)
	}

	assert.Equal(t, "a turbulent year", result.Agents[prompt.RolePast].Field("analysis_summary"))
	assert.False(t, result.Integration.Degraded())
	assert.Equal(t, "recovering from a turbulent year", result.Integration.Field("integrated_summary"))
}

func TestRunUniqueTraceIDs(t *testing.T) {
	p := newTestPipeline(newTestModel(), memory.NewInMemoryStore())

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		result, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "entry"})
		require.NoError(t, err)
		assert.False(t, seen[result.TraceID], "duplicate trace id %s", result.TraceID)
		seen[result.TraceID] = true
	}
}

func TestRunEmptyRequest(t *testing.T) {
	p := newTestPipeline(newTestModel(), memory.NewInMemoryStore())

	_, err := p.Run(context.Background(), core.Request{UserID: "alice"})
	assert.ErrorIs(t, err, ErrEmptyRequest)
}

func TestRunDegradesSingleAgent(t *testing.T) {
	m := &flakyModel{
		MockModel:  newTestModel(),
		failMarker: pastMarker,
		err:        errors.New("provider exploded"),
	}
	p := newTestPipeline(m, memory.NewInMemoryStore())

	result, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "entry"})
	require.NoError(t, err)

	past := result.Agents[prompt.RolePast]
	assert.True(t, past.Degraded())
	assert.Contains(t, past.Fields["error"], "provider exploded")

	assert.False(t, result.Agents[prompt.RolePresent].Degraded())
	assert.False(t, result.Agents[prompt.RoleFuture].Degraded())

	// The failed analysis feeds the placeholder into synthesis.
	var integrationPrompt string
	for _, call := range m.Calls() {
		if strings.Contains(call.Prompt, integrationMarker) {
			integrationPrompt = call.Prompt
		}
	}
	require.NotEmpty(t, integrationPrompt)
	assert.Contains(t, integrationPrompt, "past: none")
	assert.Contains(t, integrationPrompt, "present: tense but hopeful")
}

func TestRunAgentErrorFieldNotDegraded(t *testing.T) {
	// Model output legitimately containing an "error" field is a successful
	// result, not a failure placeholder.
	m := newTestModel()
	m.AddResponse(pastMarker, `{"analysis_summary": "a turbulent year", "key_events": [], "dominant_emotions": [], "triggers": [], "coping_strategies": [], "error": "upstream warning", "confidence": 0.8}`)
	m.AddResponse(presentMarker, `{"state_summary": "tense but hopeful", "current_emotions": [], "intensity": 6, "needs": [], "error": "upstream warning", "confidence": 0.7}`)
	m.AddResponse(futureMarker, `{"projection_summary": "gradual recovery", "likely_scenarios": [], "opportunities": [], "recommendations": [], "error": "upstream warning", "confidence": 0.6}`)
	p := newTestPipeline(m, memory.NewInMemoryStore())

	result, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "entry"})
	require.NoError(t, err)

	for _, role := range []string{prompt.RolePast, prompt.RolePresent, prompt.RoleFuture} {
		assert.False(t, result.Agents[role].Degraded(), "role %s misclassified as degraded", role)
	}
	assert.Equal(t, "a turbulent year", result.Agents[prompt.RolePast].Field("analysis_summary"))
}

func TestRunAllAgentsFailed(t *testing.T) {
	m := newTestModel()
	m.FailGenerateWith(errors.New("provider down"))
	p := newTestPipeline(m, memory.NewInMemoryStore())

	_, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "entry"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllAgentsFailed)

	var pipeErr *core.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.NotEmpty(t, pipeErr.TraceID)
}

func TestRunUnparseableIntegration(t *testing.T) {
	m := newTestModel()
	m.AddResponse(integrationMarker, "I would rather answer in free text.")
	p := newTestPipeline(m, memory.NewInMemoryStore())

	result, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "entry"})
	require.NoError(t, err)

	assert.True(t, result.Integration.ParseError)
	assert.Equal(t, "I would rather answer in free text.", result.Integration.RawText)
}

func TestRunWriteBackFeedsRetrieval(t *testing.T) {
	m := newTestModel()
	store := memory.NewInMemoryStore()
	p := newTestPipeline(m, store)
	ctx := context.Background()

	_, err := p.Run(ctx, core.Request{UserID: "alice", Entry: "rough couple of months"})
	require.NoError(t, err)

	// The condensed summary was stored for the user.
	embedding, err := m.Embed(ctx, "recovering from a turbulent year")
	require.NoError(t, err)
	hits, err := store.SearchMemories(ctx, "alice", embedding, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "recovering from a turbulent year", hits[0].Text)
	assert.NotEmpty(t, hits[0].Metadata["trace_id"])

	// A second run sees the stored memory as retrieval context.
	_, err = p.Run(ctx, core.Request{UserID: "alice", Entry: "still processing"})
	require.NoError(t, err)

	found := false
	for _, call := range m.Calls() {
		if strings.Contains(call.Prompt, "- recovering from a turbulent year") {
			found = true
		}
	}
	assert.True(t, found, "expected stored memory in a later prompt")
}

func TestRunWriteBackCondensesWithoutSummary(t *testing.T) {
	m := newTestModel()
	m.AddResponse(integrationMarker, "no json at all")
	m.AddResponse("Condense the following", "a short condensed memory")
	store := memory.NewInMemoryStore()
	p := newTestPipeline(m, store)
	ctx := context.Background()

	_, err := p.Run(ctx, core.Request{UserID: "alice", Entry: "a very long entry"})
	require.NoError(t, err)

	embedding, err := m.Embed(ctx, "a short condensed memory")
	require.NoError(t, err)
	hits, err := store.SearchMemories(ctx, "alice", embedding, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a short condensed memory", hits[0].Text)
}

func TestRunWriteBackFallbackTruncates(t *testing.T) {
	base := newTestModel()
	base.AddResponse(integrationMarker, "no json at all")
	m := &flakyModel{
		MockModel:  base,
		failMarker: "Condense the following",
		err:        errors.New("condensation unavailable"),
	}
	store := memory.NewInMemoryStore()
	p := newTestPipeline(m, store)
	ctx := context.Background()

	long := strings.Repeat("a", 600)
	_, err := p.Run(ctx, core.Request{UserID: "alice", Entry: long})
	require.NoError(t, err)

	embedding, err := m.Embed(ctx, long[:500])
	require.NoError(t, err)
	hits, err := store.SearchMemories(ctx, "alice", embedding, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Len(t, []rune(hits[0].Text), 500)
}

func TestRunEmbedFailureDegradesToNoContext(t *testing.T) {
	m := newTestModel()
	m.FailEmbedWith(core.ErrEmbeddingUnavailable)
	store := memory.NewInMemoryStore()
	p := newTestPipeline(m, store)
	ctx := context.Background()

	result, err := p.Run(ctx, core.Request{UserID: "alice", Entry: "rough couple of months"})
	require.NoError(t, err)
	assert.False(t, result.Integration.Degraded())

	// Retrieval degraded to the empty-context placeholder.
	found := false
	for _, call := range m.Calls() {
		if strings.Contains(call.Prompt, pastMarker) {
			assert.Contains(t, call.Prompt, "(no additional context)")
			found = true
		}
	}
	require.True(t, found, "expected a fan-out prompt")

	// The write-back was skipped, nothing reached the store.
	hits, err := store.SearchMemories(ctx, "alice", make([]float32, 8), 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRunMemoryIsolation(t *testing.T) {
	m := newTestModel()
	store := memory.NewInMemoryStore()
	p := newTestPipeline(m, store)
	ctx := context.Background()

	_, err := p.Run(ctx, core.Request{UserID: "alice", Entry: "alice's private worries"})
	require.NoError(t, err)

	// Bob's run must not see Alice's stored memory in any prompt.
	before := len(m.Calls())
	_, err = p.Run(ctx, core.Request{UserID: "bob", Entry: "bob's separate concerns"})
	require.NoError(t, err)

	for _, call := range m.Calls()[before:] {
		assert.NotContains(t, call.Prompt, "recovering from a turbulent year")
	}
}

func TestRunDisabledMemory(t *testing.T) {
	p := newTestPipeline(newTestModel(), memory.NewNoOpStore())

	result, err := p.Run(context.Background(), core.Request{UserID: "alice", Entry: "entry"})
	require.NoError(t, err)
	assert.False(t, result.Integration.Degraded())
}

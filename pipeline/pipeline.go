// Package pipeline implements the orchestration run: best-effort memory
// retrieval, concurrent fan-out over the analysis agents, synthesis of their
// summaries and an asynchronous memory write-back. A run degrades rather than
// aborts; it fails only when the request is empty or every fan-out agent
// fails outright.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/logging"
	"github.com/hupe1980/prism/model"
	"github.com/hupe1980/prism/parse"
	"github.com/hupe1980/prism/prompt"
)

// ErrEmptyRequest reports a request carrying no analyzable text.
var ErrEmptyRequest = errors.New("empty request")

// ErrAllAgentsFailed reports a run in which no fan-out agent produced output.
var ErrAllAgentsFailed = errors.New("all agents failed")

// writeBackLimit caps the length of the raw-text fallback stored as a memory
// when the synthesis produced no usable summary.
const writeBackLimit = 500

// Options configures a Pipeline.
type Options struct {
	Registry *prompt.Registry

	// TopK bounds the number of memories retrieved as context.
	TopK int

	// SyncWriteBack blocks Run until the memory write-back completes.
	// Used by tests and short-lived callers that exit right after Run.
	SyncWriteBack bool

	Logger logging.Logger
}

// Pipeline runs the full analysis for one request. Safe for concurrent use;
// each Run is independent.
type Pipeline struct {
	model    model.Model
	memory   core.MemoryStore
	registry *prompt.Registry
	topK     int
	syncWB   bool
	logger   logging.Logger

	// wb tracks in-flight write-backs so owners can drain them on shutdown.
	wb sync.WaitGroup
}

// New creates a Pipeline over the given model and memory store.
func New(m model.Model, store core.MemoryStore, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		Registry: prompt.Default(),
		TopK:     3,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{
		model:    m,
		memory:   store,
		registry: opts.Registry,
		topK:     opts.TopK,
		syncWB:   opts.SyncWriteBack,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Run executes one pipeline invocation under a fresh trace ID and returns
// the aggregated result.
//
// Failures of individual stages degrade the result instead of failing the
// run: retrieval errors yield an empty context, a failing agent is replaced
// by an error placeholder, unparseable output is flagged and kept raw. Run
// itself errors only on an empty request, a canceled context, or when every
// fan-out agent failed.
func (p *Pipeline) Run(ctx context.Context, req core.Request) (core.Result, error) {
	return p.RunTraced(ctx, uuid.NewString(), req)
}

// RunTraced is Run under a caller-supplied trace ID, letting asynchronous
// submitters hand out the ID before the run starts.
func (p *Pipeline) RunTraced(ctx context.Context, traceID string, req core.Request) (core.Result, error) {
	if req.Empty() {
		return core.Result{}, ErrEmptyRequest
	}

	logger := p.logger

	memories := p.retrieve(ctx, req)

	specs := p.registry.FanOut()
	results := make([]core.AgentResult, len(specs))

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec core.AgentSpec) {
			defer wg.Done()
			results[i] = p.invoke(ctx, spec, req.Inputs(), memories)
		}(i, spec)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return core.Result{}, &core.PipelineError{TraceID: traceID, Err: err}
	}

	agents := make(map[string]core.AgentResult, len(specs))
	failed := 0
	for i, spec := range specs {
		agents[spec.Role] = results[i]
		if results[i].Failed {
			failed++
		}
	}
	if failed == len(specs) {
		return core.Result{}, &core.PipelineError{TraceID: traceID, Err: ErrAllAgentsFailed}
	}

	integration := p.synthesize(ctx, req, specs, results)

	result := core.Result{
		TraceID:     traceID,
		Agents:      agents,
		Integration: integration,
	}

	p.wb.Add(1)
	if p.syncWB {
		p.writeBack(ctx, req, result)
	} else {
		go p.writeBack(context.WithoutCancel(ctx), req, result)
	}

	logger.Info("pipeline.run.completed", "trace_id", traceID, "user_id", req.UserID, "degraded_agents", failed)
	return result, nil
}

// Drain blocks until all asynchronous memory write-backs have finished.
func (p *Pipeline) Drain() { p.wb.Wait() }

// retrieve embeds the request text and searches the user's memories. Any
// failure degrades to an empty context.
func (p *Pipeline) retrieve(ctx context.Context, req core.Request) prompt.ListContext {
	embedding, err := p.model.Embed(ctx, req.CombinedText())
	if err != nil {
		p.logger.Warn("pipeline.retrieve.embed_failed", "user_id", req.UserID, "error", err.Error())
		return nil
	}

	hits, err := p.memory.SearchMemories(ctx, req.UserID, embedding, p.topK)
	if err != nil {
		p.logger.Warn("pipeline.retrieve.search_failed", "user_id", req.UserID, "error", err.Error())
		return nil
	}

	memories := make(prompt.ListContext, 0, len(hits))
	for _, hit := range hits {
		memories = append(memories, hit.Text)
	}
	return memories
}

// invoke runs one fan-out agent: compose, generate, parse. Provider failures
// come back as error placeholders, unparseable output as flagged raw results.
func (p *Pipeline) invoke(ctx context.Context, spec core.AgentSpec, inputs map[string]string, memories prompt.ListContext) core.AgentResult {
	start := time.Now()

	composed, err := p.registry.Compose(spec.Name, inputs, memories)
	if err != nil {
		return core.DegradedResult(spec.Name, err)
	}

	raw, err := p.model.Generate(ctx, model.Request{Prompt: composed})
	if err != nil {
		p.logger.Warn("pipeline.agent.failed", "agent", spec.Name, "error", err.Error())
		return core.DegradedResult(spec.Name, err)
	}

	result := parse.Output(spec.Name, raw)
	if missing := parse.MissingFields(result, spec.ExpectedFields); len(missing) > 0 {
		p.logger.Warn("pipeline.agent.incomplete", "agent", spec.Name, "missing", fmt.Sprint(missing))
	}

	p.logger.Debug("pipeline.agent.completed", "agent", spec.Name, "duration_ms", time.Since(start).Milliseconds(), "degraded", result.Degraded())
	return result
}

// synthesize feeds the fan-out summaries to the integration agent. A degraded
// or summary-less analysis contributes the placeholder "none" so the
// integration prompt always names every role.
func (p *Pipeline) synthesize(ctx context.Context, req core.Request, specs []core.AgentSpec, results []core.AgentResult) core.AgentResult {
	summaries := make(prompt.NamedContext, len(specs))
	for i, spec := range specs {
		summary := "none"
		if !results[i].Degraded() {
			if s := results[i].Field(spec.SummaryField); s != "" {
				summary = s
			}
		}
		summaries[spec.Role] = summary
	}

	composed, err := p.registry.Compose(prompt.IntegrationAgent, req.Inputs(), summaries)
	if err != nil {
		return core.DegradedResult(prompt.IntegrationAgent, err)
	}

	raw, err := p.model.Generate(ctx, model.Request{Prompt: composed})
	if err != nil {
		p.logger.Warn("pipeline.synthesis.failed", "error", err.Error())
		return core.DegradedResult(prompt.IntegrationAgent, err)
	}

	return parse.Output(prompt.IntegrationAgent, raw)
}

// writeBack stores a condensed record of the run in the user's memory. Purely
// best-effort: every failure is logged and swallowed.
func (p *Pipeline) writeBack(ctx context.Context, req core.Request, result core.Result) {
	defer p.wb.Done()

	text := result.Integration.Field("integrated_summary")
	if text == "" || result.Integration.Degraded() {
		text = p.condense(ctx, req.CombinedText())
	}

	embedding, err := p.model.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("pipeline.writeback.embed_failed", "trace_id", result.TraceID, "error", err.Error())
		return
	}

	metadata := map[string]any{"trace_id": result.TraceID}
	if req.SessionID != "" {
		metadata["session_id"] = req.SessionID
	}

	if _, err := p.memory.AddMemory(ctx, req.UserID, text, embedding, metadata); err != nil {
		if !errors.Is(err, core.ErrMemoryDisabled) {
			p.logger.Warn("pipeline.writeback.store_failed", "trace_id", result.TraceID, "error", err.Error())
		}
		return
	}

	p.logger.Debug("pipeline.writeback.stored", "trace_id", result.TraceID, "user_id", req.UserID)
}

// condense asks the model for a two-sentence memory of the raw text, falling
// back to plain truncation when the call fails or returns nothing.
func (p *Pipeline) condense(ctx context.Context, text string) string {
	condensed, err := p.model.Generate(ctx, model.Request{
		Prompt:      "Condense the following entry into at most two sentences capturing its emotional core. Respond with the sentences only.\n\n" + text,
		Temperature: 0.2,
		MaxTokens:   200,
	})
	if err != nil || strings.TrimSpace(condensed) == "" {
		return truncate(text, writeBackLimit)
	}
	return truncate(strings.TrimSpace(condensed), writeBackLimit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

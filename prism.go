// Package prism provides a high-level façade over the analysis pipeline and
// its services (model providers, memory, sessions, tools & logging). Most
// applications interact with this package by:
//  1. Creating a Prism via New() from a resolved configuration
//  2. Running analyses synchronously (Analyze) or asynchronously (Submit/Poll)
//  3. Calling auxiliary tools by name (CallTool)
//
// The façade delegates orchestration to pipeline.Pipeline and background
// execution to tracker.Tracker while keeping setup ergonomics concise. All
// defaults are safe for local development; production deployments typically
// select a durable memory backend and a structured logger.
package prism

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/prism/config"
	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/logging"
	"github.com/hupe1980/prism/memory"
	"github.com/hupe1980/prism/model"
	anthropicmodel "github.com/hupe1980/prism/model/anthropic"
	geminimodel "github.com/hupe1980/prism/model/gemini"
	openaimodel "github.com/hupe1980/prism/model/openai"
	"github.com/hupe1980/prism/pipeline"
	"github.com/hupe1980/prism/session"
	"github.com/hupe1980/prism/tool"
	"github.com/hupe1980/prism/tracker"
)

// Options configures the Prism instance.
type Options struct {
	// Model overrides provider resolution from the configuration. Mainly
	// used by tests to inject a mock.
	Model model.Model

	// MemoryStore overrides memory backend selection from the configuration.
	MemoryStore core.MemoryStore

	// SessionStore defaults to an in-memory implementation.
	SessionStore *session.InMemoryStore

	// ExtraTools are registered with the tool router in addition to the
	// built-in sentiment and recall tools.
	ExtraTools []tool.Tool

	// SyncWriteBack makes Analyze block until the memory write-back has
	// completed. Used by tests and short-lived callers.
	SyncWriteBack bool

	// Logger defaults to the NoOp logger if nil.
	Logger logging.Logger
}

// Prism is the high-level façade aggregating the pipeline and its services.
type Prism struct {
	cfg      *config.Config
	model    model.Model
	memory   core.MemoryStore
	sessions *session.InMemoryStore
	pipeline *pipeline.Pipeline
	tracker  *tracker.Tracker
	tools    *tool.Router
	logger   logging.Logger
}

// New creates a Prism instance from the given configuration. The active model
// provider is the first configured credential in fixed priority order: Groq,
// Gemini, OpenAI, Anthropic; without any credential New fails with
// core.ErrNoCredentials (unless Options.Model overrides resolution).
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*Prism, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := Options{
		SessionStore: session.NewInMemoryStore(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	m := opts.Model
	if m == nil {
		resolved, err := resolveModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		m = resolved
	}
	info := m.Info()
	logger.Info("prism.model_selected", "provider", info.Provider, "model", info.Name)

	store := opts.MemoryStore
	if store == nil {
		built, err := buildMemoryStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = built
	}

	p := pipeline.New(m, store, func(o *pipeline.Options) {
		o.TopK = cfg.Memory.TopK
		o.SyncWriteBack = opts.SyncWriteBack
		o.Logger = logger
	})

	tools := append([]tool.Tool{
		tool.NewSentimentTool(m),
		tool.NewRecallTool(m, store, cfg.Memory.TopK),
	}, opts.ExtraTools...)

	router := tool.NewRouter(tools, func(o *tool.RouterOptions) {
		o.RateLimitPerMinute = cfg.Tools.RateLimitPerMinute
		o.Logger = logger
	})

	tr := tracker.New(p, func(o *tracker.Options) {
		o.Workers = cfg.Tracker.Workers
		o.QueueSize = cfg.Tracker.QueueSize
		o.Logger = logger
	})

	return &Prism{
		cfg:      cfg,
		model:    m,
		memory:   store,
		sessions: opts.SessionStore,
		pipeline: p,
		tracker:  tr,
		tools:    router,
		logger:   logger,
	}, nil
}

// resolveModel picks the provider by fixed priority over configured credentials.
func resolveModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	switch {
	case cfg.Groq.APIKey != "":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Provider = "groq"
			o.Model = cfg.Groq.Model
			o.EmbeddingModel = ""
			o.APIKey = cfg.Groq.APIKey
			o.BaseURL = cfg.Groq.BaseURL
		}), nil
	case cfg.Gemini.APIKey != "":
		return geminimodel.NewModel(ctx, func(o *geminimodel.Options) {
			o.Model = cfg.Gemini.Model
			o.EmbeddingModel = cfg.Gemini.EmbeddingModel
			o.APIKey = cfg.Gemini.APIKey
		})
	case cfg.OpenAI.APIKey != "":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = cfg.OpenAI.Model
			o.EmbeddingModel = cfg.OpenAI.EmbeddingModel
			o.APIKey = cfg.OpenAI.APIKey
		}), nil
	case cfg.Anthropic.APIKey != "":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = cfg.Anthropic.Model
			o.APIKey = cfg.Anthropic.APIKey
		}), nil
	default:
		return nil, core.ErrNoCredentials
	}
}

// buildMemoryStore instantiates the configured memory backend.
func buildMemoryStore(ctx context.Context, cfg *config.Config) (core.MemoryStore, error) {
	switch cfg.Memory.Backend {
	case "qdrant":
		return memory.NewQdrantStore(ctx, func(o *memory.QdrantOptions) {
			o.Host = cfg.Qdrant.Host
			o.Port = cfg.Qdrant.Port
			o.APIKey = cfg.Qdrant.APIKey
			o.UseTLS = cfg.Qdrant.UseTLS
			o.Collection = cfg.Qdrant.Collection
			o.VectorSize = cfg.Memory.VectorSize
			o.RequestTimeout = cfg.Qdrant.RequestTimeout
		})
	case "chromem":
		return memory.NewChromemStore(func(o *memory.ChromemOptions) {
			o.Path = cfg.Chromem.Path
			o.Compress = cfg.Chromem.Compress
		})
	default:
		return memory.NewNoOpStore(), nil
	}
}

// Model returns metadata about the active model provider.
func (p *Prism) Model() model.Info { return p.model.Info() }

// Analyze runs the pipeline synchronously for one request.
func (p *Prism) Analyze(ctx context.Context, req core.Request) (core.Result, error) {
	result, err := p.pipeline.Run(ctx, req)
	if err != nil {
		return core.Result{}, err
	}
	p.recordTrace(req.SessionID, result.TraceID)
	return result, nil
}

// Submit enqueues a request for background execution and returns its trace ID
// immediately. Poll observes the job's progress.
func (p *Prism) Submit(req core.Request) string {
	traceID := p.tracker.Submit(req)
	p.recordTrace(req.SessionID, traceID)
	return traceID
}

// Poll returns the job for a previously submitted trace ID and whether it exists.
func (p *Prism) Poll(traceID string) (core.Job, bool) {
	return p.tracker.Poll(traceID)
}

// CallTool routes a named tool call through the rate-limited router.
func (p *Prism) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	return p.tools.Call(ctx, name, args)
}

// RegisterTool adds a tool to the router at runtime.
func (p *Prism) RegisterTool(t tool.Tool) { p.tools.Register(t) }

// CreateSession starts a new session for the user.
func (p *Prism) CreateSession(userID string) (*core.Session, error) {
	return p.sessions.Create(userID)
}

// GetSession returns a snapshot of an existing session.
func (p *Prism) GetSession(sessionID string) (*core.Session, error) {
	return p.sessions.Get(sessionID)
}

// PauseSession marks a session paused.
func (p *Prism) PauseSession(sessionID string) error { return p.sessions.Pause(sessionID) }

// ResumeSession reactivates a paused session.
func (p *Prism) ResumeSession(sessionID string) error { return p.sessions.Resume(sessionID) }

// DeleteUser erases all data stored for the user: memory records, derived
// per-user index structures and sessions. It returns the number of memory
// records removed.
func (p *Prism) DeleteUser(ctx context.Context, userID string) (int, error) {
	n, err := p.memory.DeleteUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to erase memories for user %s: %w", userID, err)
	}

	sessions := p.sessions.DeleteUser(userID)
	p.logger.Info("prism.user_erased", "user_id", userID, "memories", n, "sessions", sessions)
	return n, nil
}

// Shutdown drains background work: the tracker stops accepting submissions
// and finishes queued runs, pending memory write-backs complete, and a
// closable memory backend is closed.
func (p *Prism) Shutdown() error {
	p.tracker.Shutdown()
	p.pipeline.Drain()

	if closer, ok := p.memory.(io.Closer); ok {
		if err := closer.Close(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func (p *Prism) recordTrace(sessionID, traceID string) {
	if sessionID == "" {
		return
	}
	if err := p.sessions.AppendTrace(sessionID, traceID); err != nil {
		p.logger.Warn("prism.session_trace_failed", "session_id", sessionID, "error", err.Error())
	}
}

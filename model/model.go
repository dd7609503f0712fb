package model

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// Default generation parameters applied when a Request leaves them zero.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Request captures the normalized input of one generation call. Unified
// across vendors so downstream logic does not need per-provider branching.
type Request struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature"` // [0, 2]
	MaxTokens   int64   `json:"max_tokens"`
}

// WithDefaults returns a copy with zero parameters replaced by defaults.
func (r Request) WithDefaults() Request {
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}

// Info contains metadata about a model implementation.
type Info struct {
	Name              string `json:"name"`
	Provider          string `json:"provider"` // "groq", "gemini", "openai", "anthropic"
	SupportsEmbedding bool   `json:"supports_embedding"`
}

// Model is the minimal interface required to drive generation and embedding.
//
// Generate maps every transport or backend failure into *core.ProviderError.
// Embed additionally fails with core.ErrEmbeddingUnavailable when the active
// provider offers no embedding capability; that error is non-fatal to the
// pipeline.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Canned completions are matched by substring against the prompt, so a
// response registered under an agent name fires for any prompt composed from
// that agent's template. Embeddings are deterministic hashes of the input.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	genErr    error
	embedErr  error
	calls     []Request
}

// NewMockModel constructs a MockModel with embedding support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:              name,
			Provider:          provider,
			SupportsEmbedding: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion returned for any prompt that
// contains key as a substring.
func (m *MockModel) AddResponse(key, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = response
}

// FailGenerateWith makes every subsequent Generate call return err.
func (m *MockModel) FailGenerateWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genErr = err
}

// FailEmbedWith makes every subsequent Embed call return err.
func (m *MockModel) FailEmbedWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedErr = err
}

// Calls returns a copy of every Generate request seen so far.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.genErr != nil {
		return "", m.genErr
	}
	for key, response := range m.responses {
		if strings.Contains(req.Prompt, key) {
			return response, nil
		}
	}
	return fmt.Sprintf(`{"mock": %q}`, req.Prompt), nil
}

// Embed implements Model with a deterministic 8-dimensional hash embedding.
func (m *MockModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vec := make([]float32, 8)
	h := fnv.New32a()
	for i := range vec {
		fmt.Fprintf(h, "%s:%d", text, i)
		vec[i] = float32(h.Sum32()%1000) / 1000
	}
	return vec, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

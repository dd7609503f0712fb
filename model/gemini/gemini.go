// Package gemini provides a model adapter for the Google Gemini API using the
// official genai client. It supports both generation and embeddings.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model          string
	EmbeddingModel string
	APIKey         string
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new Gemini model. Construction dials nothing but fails
// when the client cannot be configured.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:          "gemini-2.5-flash",
		EmbeddingModel: "gemini-embedding-001",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	req = req.WithDefaults()

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", core.NewProviderError("gemini", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", core.NewProviderError("gemini", fmt.Errorf("empty generation response"))
	}
	return text, nil
}

// Embed implements model.Model.
func (m *Model) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := m.client.Models.EmbedContent(ctx, m.opts.EmbeddingModel, genai.Text(text), &genai.EmbedContentConfig{})
	if err != nil {
		return nil, core.NewProviderError("gemini", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, core.NewProviderError("gemini", fmt.Errorf("empty embedding response"))
	}
	return resp.Embeddings[0].Values, nil
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:              m.opts.Model,
		Provider:          "gemini",
		SupportsEmbedding: true,
	}
}

// Package openai provides a model adapter for the OpenAI Chat Completions and
// Embeddings APIs. With a custom base URL it also serves any OpenAI-compatible
// backend; Prism uses that for Groq.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/model"
)

// Options configures the OpenAI model adapter.
type Options struct {
	// Provider is the name reported in Info and carried by ProviderError
	// ("openai" by default, "groq" when pointed at the Groq endpoint).
	Provider       string
	Model          string
	EmbeddingModel string
	APIKey         string
	BaseURL        string
}

// Model wraps the OpenAI API behind the generic model.Model interface.
type Model struct {
	client openai.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new OpenAI-compatible model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Provider:       "openai",
		Model:          openai.ChatModelGPT4oMini,
		EmbeddingModel: openai.EmbeddingModelTextEmbedding3Small,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Model{client: openai.NewClient(clientOpts...), opts: opts}
}

// Generate implements model.Model via the Chat Completions API.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	req = req.WithDefaults()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               m.opts.Model,
		Messages:            messages,
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(req.MaxTokens),
	})
	if err != nil {
		return "", core.NewProviderError(m.opts.Provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", core.NewProviderError(m.opts.Provider, fmt.Errorf("empty completion response"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed implements model.Model via the Embeddings API. The Groq endpoint does
// not serve embeddings; a configured embedding model is required.
func (m *Model) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.opts.EmbeddingModel == "" {
		return nil, core.ErrEmbeddingUnavailable
	}

	resp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: m.opts.EmbeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, core.NewProviderError(m.opts.Provider, err)
	}
	if len(resp.Data) == 0 {
		return nil, core.NewProviderError(m.opts.Provider, fmt.Errorf("empty embedding response"))
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:              m.opts.Model,
		Provider:          m.opts.Provider,
		SupportsEmbedding: m.opts.EmbeddingModel != "",
	}
}

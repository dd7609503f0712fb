// Package anthropic provides a model adapter for the Anthropic Claude API.
// Anthropic offers no embedding endpoint, so Embed always reports
// core.ErrEmbeddingUnavailable.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/prism/core"
	"github.com/hupe1980/prism/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model  string
	APIKey string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

var _ model.Model = (*Model)(nil)

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model: string(anthropic.ModelClaude3_5Sonnet20241022),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// Generate implements model.Model via the Messages API.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	req = req.WithDefaults()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", core.NewProviderError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", core.NewProviderError("anthropic", fmt.Errorf("empty generation response"))
	}
	return text, nil
}

// Embed implements model.Model. Always unavailable for Anthropic.
func (m *Model) Embed(context.Context, string) ([]float32, error) {
	return nil, core.ErrEmbeddingUnavailable
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:              m.opts.Model,
		Provider:          "anthropic",
		SupportsEmbedding: false,
	}
}

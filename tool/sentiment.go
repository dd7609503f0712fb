package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/prism/model"
	"github.com/hupe1980/prism/parse"
	"github.com/hupe1980/prism/prompt"
)

// SentimentTool classifies the sentiment of a piece of text with a single
// model call. It reuses the prompt registry and the resilient output parser,
// so it behaves exactly like a pipeline agent invoked in isolation.
type SentimentTool struct {
	model    model.Model
	registry *prompt.Registry
}

var _ Tool = (*SentimentTool)(nil)

// NewSentimentTool creates a sentiment classification tool backed by the
// given model.
func NewSentimentTool(m model.Model) *SentimentTool {
	return &SentimentTool{model: m, registry: prompt.Default()}
}

// Name implements Tool.
func (t *SentimentTool) Name() string { return "analyze_sentiment" }

// Description implements Tool.
func (t *SentimentTool) Description() string {
	return "Classify the overall sentiment of a text as positive, negative, neutral or mixed"
}

// Parameters implements Tool.
func (t *SentimentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string", "description": "The text to classify"},
		},
		"required": []string{"text"},
	}
}

// Call implements Tool.
func (t *SentimentTool) Call(ctx context.Context, args map[string]any) (any, error) {
	text, _ := args["text"].(string)
	if text == "" {
		return nil, NewToolError(t.Name(), "missing required parameter \"text\"", "VALIDATION_ERROR")
	}

	composed, err := t.registry.Compose(prompt.SentimentAgent, map[string]string{"entry": text}, nil)
	if err != nil {
		return nil, NewToolError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}

	raw, err := t.model.Generate(ctx, model.Request{Prompt: composed})
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("model call failed: %v", err), "EXECUTION_ERROR")
	}

	result := parse.Output(prompt.SentimentAgent, raw)
	if result.ParseError {
		return nil, NewToolError(t.Name(), "model returned unparseable output", "PARSE_ERROR")
	}
	return result.Fields, nil
}

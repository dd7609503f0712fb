package tool

import (
	"context"
	"errors"
	"fmt"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a Tool.
//
// It validates supplied arguments against the declared schema's required list
// before execution and normalizes failures to *ToolError with consistent
// codes: VALIDATION_ERROR for argument mismatches, EXECUTION_ERROR for errors
// the wrapped function returns (custom codes are preserved when the function
// returns *ToolError directly).
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

var _ Tool = (*FunctionTool)(nil)

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	echoTool := NewFunctionTool(
//	  "echo",
//	  "Return the given text unchanged",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "text": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"text"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["text"], nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the unique tool name used for routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the provided args against the declared schema then invokes
// the underlying function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := validateRequired(args, t.parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}

// validateRequired checks that every field named in the schema's required
// list is present. Schemas built in Go carry []string; schemas decoded from
// JSON carry []any.
func validateRequired(args, parameters map[string]any) error {
	switch required := parameters["required"].(type) {
	case []string:
		for _, name := range required {
			if _, ok := args[name]; !ok {
				return fmt.Errorf("missing required parameter %q", name)
			}
		}
	case []any:
		for _, raw := range required {
			name, ok := raw.(string)
			if !ok {
				continue
			}
			if _, ok := args[name]; !ok {
				return fmt.Errorf("missing required parameter %q", name)
			}
		}
	}
	return nil
}

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is returned when no provider credential is
	// configured. Fatal at client construction; there is no degraded mode
	// for text generation.
	ErrNoCredentials = errors.New("no model provider credentials configured")

	// ErrUnknownAgent is returned when a prompt is requested for an agent
	// name absent from the registry.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrEmbeddingUnavailable is returned by providers that offer no
	// embedding capability. Non-fatal: context retrieval and memory
	// write-back degrade to no-ops.
	ErrEmbeddingUnavailable = errors.New("embedding not supported by active provider")

	// ErrMemoryDisabled is returned by the no-op memory store when no
	// vector backend is configured.
	ErrMemoryDisabled = errors.New("memory store disabled")
)

// ProviderError normalizes any transport or backend failure of a single model
// call (auth, quota, malformed response). Callers never see provider-specific
// error types.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with the provider name.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// PipelineError wraps any failure that escapes the pipeline's local recovery
// boundaries. It carries the trace ID so callers can correlate logs and polled
// results even on failure.
type PipelineError struct {
	TraceID string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline run %s: %v", e.TraceID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

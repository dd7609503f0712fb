// Package logging provides a minimal logging interface and adapters for Prism.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the pipeline, tracker and stores use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - PrismLogger with contextual helpers (trace, user, component) and
//     domain-specific helpers for model calls and agent invocations
//
// The design intentionally keeps the interface minimal so callers can plug
// any structured logger while components never nil-check theirs.
package logging

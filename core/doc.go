// Package core provides the foundational domain types and interfaces used by
// Prism. It defines the core abstractions for:
//
//   - Agent specifications (one named analysis stage each)
//   - Orchestration requests and per-agent / aggregated results
//   - Memory records and the pluggable MemoryStore contract
//   - Jobs (asynchronous submission + poll-based completion)
//   - The shared error taxonomy
//
// The package intentionally keeps implementation concerns (provider adapters,
// vector backends, the pipeline itself) out of scope, exposing small
// interfaces to enable custom backends and substitution in tests.
package core

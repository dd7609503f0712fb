// Package memory contains concrete MemoryStore implementations. The store
// interface and SearchResult type reside in the core package; depend on
// core.MemoryStore in your code and select an implementation at wiring time.
//
// Three backends are provided: an in-process store for tests and demos, an
// embedded chromem-go store with one collection per user, and a Qdrant store
// that isolates users through a payload filter. All of them enforce the same
// contract: a search never returns another user's records.
package memory

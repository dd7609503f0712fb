// Package model defines the uniform interface to text-generation and
// text-embedding backends, plus a deterministic MockModel for tests and
// examples. Concrete provider adapters live in the subpackages (openai,
// gemini, anthropic); provider selection happens once, at construction, in the
// root prism package.
package model

// Package prompt builds the final prompt string for each agent from a named
// template, structured request inputs and an optional context block (retrieved
// memories or sibling-agent summaries). Composition is a pure string
// transform: no network, no disk, deterministic output for identical inputs.
package prompt

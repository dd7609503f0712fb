package core

// AgentResult is the structured record produced by one agent invocation. It is
// never mutated after creation. On parse failure the field map is empty,
// ParseError is set and RawText preserves the model output verbatim so callers
// can inspect what happened.
type AgentResult struct {
	AgentName  string         `json:"agent_name"`
	Fields     map[string]any `json:"fields"`
	RawText    string         `json:"raw_text"`
	ParseError bool           `json:"parse_error"`

	// Failed marks a placeholder substituted for an invocation that errored
	// before producing output. Distinct from ParseError and from any "error"
	// field a model might legitimately emit.
	Failed bool `json:"failed,omitempty"`
}

// Field returns the string form of a top-level field, or "" when absent or
// non-string. Convenience for pulling summary fields into synthesis context.
func (r AgentResult) Field(name string) string {
	if v, ok := r.Fields[name]; ok {
		if s, ok := s2(v); ok {
			return s
		}
	}
	return ""
}

func s2(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Degraded reports whether the result is an error placeholder or failed to
// parse. The pipeline substitutes degraded results for failing agents rather
// than aborting the run.
func (r AgentResult) Degraded() bool {
	return r.ParseError || r.Failed
}

// DegradedResult builds the placeholder substituted for an agent whose
// invocation failed outright (provider error, not parse failure). The error
// text is kept in the field map so consumers can render it.
func DegradedResult(agentName string, err error) AgentResult {
	return AgentResult{
		AgentName: agentName,
		Fields:    map[string]any{"error": err.Error()},
		Failed:    true,
	}
}

// Result aggregates one complete pipeline run. Agents is keyed by role
// ("past", "present", "future"); Integration holds the synthesis output.
// Identified by a globally unique TraceID generated at submission time.
type Result struct {
	TraceID     string                 `json:"trace_id"`
	Agents      map[string]AgentResult `json:"agents"`
	Integration AgentResult            `json:"integration"`
}

// Package parse turns raw model output into structured agent results. Models
// are asked for bare JSON but frequently wrap it in markdown fences or
// surrounding prose, so parsing degrades gracefully: strict decode first, then
// a retry on the outermost brace-delimited span, and as a last resort a
// flagged result that preserves the raw text. Parsing never returns an error.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/hupe1980/prism/core"
)

// Output parses a raw model response into the structured result for the named
// agent. On failure the returned result carries the verbatim raw text and its
// ParseError flag is set; that flag is the only failure signal.
func Output(agentName, raw string) core.AgentResult {
	result := core.AgentResult{
		AgentName: agentName,
		RawText:   raw,
	}

	fields, ok := decode(raw)
	if !ok {
		result.ParseError = true
		return result
	}

	result.Fields = fields
	return result
}

// MissingFields returns the expected top-level fields absent from the result,
// in the order expected lists them. A degraded result is reported as missing
// everything.
func MissingFields(result core.AgentResult, expected []string) []string {
	if result.ParseError {
		return append([]string(nil), expected...)
	}

	var missing []string
	for _, name := range expected {
		if _, ok := result.Fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func decode(raw string) (map[string]any, bool) {
	text := strings.TrimSpace(raw)

	if fields, ok := tryUnmarshal(text); ok {
		return fields, true
	}

	// Models often fence the JSON or prefix it with prose. Retrying on the
	// outermost brace-delimited span recovers both cases.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if fields, ok := tryUnmarshal(text[start : end+1]); ok {
			return fields, true
		}
	}

	return nil, false
}

func tryUnmarshal(text string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

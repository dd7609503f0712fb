package core

import "strings"

// Request is one unit of work submitted to the orchestration pipeline. It is
// owned exclusively by a single pipeline invocation and must not be mutated
// after submission.
//
// Either the structured triple (Focus/History/Vision) or the free-text Entry
// may be populated; both forms feed the same prompt composition path.
type Request struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`

	// Structured variant.
	Focus   string `json:"focus,omitempty"`
	History string `json:"history,omitempty"`
	Vision  string `json:"vision,omitempty"`

	// Simple variant: a single free-text entry.
	Entry string `json:"entry,omitempty"`
}

// Inputs returns the named prompt fields in a deterministic form. The simple
// variant maps to a single "entry" field.
func (r Request) Inputs() map[string]string {
	if r.Entry != "" {
		return map[string]string{"entry": r.Entry}
	}
	return map[string]string{
		"focus":   r.Focus,
		"history": r.History,
		"vision":  r.Vision,
	}
}

// CombinedText concatenates all populated input fields into one string, used
// to compute the retrieval embedding and the memory write-back text.
func (r Request) CombinedText() string {
	if r.Entry != "" {
		return r.Entry
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{r.Focus, r.History, r.Vision} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether the request carries no analyzable text at all.
func (r Request) Empty() bool { return r.CombinedText() == "" }

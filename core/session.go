package core

import "time"

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	// SessionActive accepts new pipeline runs.
	SessionActive SessionStatus = "active"
	// SessionPaused keeps history but accepts no new runs.
	SessionPaused SessionStatus = "paused"
)

// Checkpoint is a labeled snapshot of session state that the session can be
// rolled back to.
type Checkpoint struct {
	Label string         `json:"label"`
	At    time.Time      `json:"at"`
	State map[string]any `json:"state,omitempty"`
}

// Session groups a user's consecutive pipeline runs. It carries the trace IDs
// of every run submitted under it plus free-form state, so a client can
// resume a conversation where it left off.
type Session struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Status      SessionStatus  `json:"status"`
	Created     time.Time      `json:"created"`
	Updated     time.Time      `json:"updated"`
	Traces      []string       `json:"traces,omitempty"`
	State       map[string]any `json:"state,omitempty"`
	Checkpoints []Checkpoint   `json:"checkpoints,omitempty"`
}

// Clone returns a deep copy so stores can hand out snapshots without
// exposing internal state.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Traces = append([]string(nil), s.Traces...)
	clone.State = copyState(s.State)
	if s.Checkpoints != nil {
		clone.Checkpoints = make([]Checkpoint, len(s.Checkpoints))
		for i, cp := range s.Checkpoints {
			clone.Checkpoints[i] = Checkpoint{Label: cp.Label, At: cp.At, State: copyState(cp.State)}
		}
	}
	return &clone
}

func copyState(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

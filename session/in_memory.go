package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/prism/core"
)

// ErrSessionNotFound reports an operation against an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// InMemoryStore is a volatile session store keeping sessions in a process
// local map. It is safe for concurrent access and best suited for tests or
// ephemeral demo servers. Each returned session is cloned to prevent external
// mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	byUser   map[string][]string // userID -> session IDs
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		byUser:   make(map[string][]string),
	}
}

// Create starts a new active session for the user and returns its snapshot.
func (s *InMemoryStore) Create(userID string) (*core.Session, error) {
	now := time.Now().UTC()
	sess := &core.Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		Status:  core.SessionActive,
		Created: now,
		Updated: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.byUser[userID] = append(s.byUser[userID], sess.ID)

	return sess.Clone(), nil
}

// Get returns a snapshot of an existing session.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	return sess.Clone(), nil
}

// Pause marks the session paused; new runs should not be submitted under it.
func (s *InMemoryStore) Pause(sessionID string) error {
	return s.setStatus(sessionID, core.SessionPaused)
}

// Resume reactivates a paused session.
func (s *InMemoryStore) Resume(sessionID string) error {
	return s.setStatus(sessionID, core.SessionActive)
}

func (s *InMemoryStore) setStatus(sessionID string, status core.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	sess.Status = status
	sess.Updated = time.Now().UTC()
	return nil
}

// AppendTrace records a pipeline run's trace ID on the session.
func (s *InMemoryStore) AppendTrace(sessionID, traceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	sess.Traces = append(sess.Traces, traceID)
	sess.Updated = time.Now().UTC()
	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(sessionID string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	if sess.State == nil {
		sess.State = make(map[string]any, len(delta))
	}
	for k, v := range delta {
		sess.State[k] = v
	}
	sess.Updated = time.Now().UTC()
	return nil
}

// Checkpoint records a labeled snapshot of the session's current state.
func (s *InMemoryStore) Checkpoint(sessionID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	snapshot := make(map[string]any, len(sess.State))
	for k, v := range sess.State {
		snapshot[k] = v
	}
	sess.Checkpoints = append(sess.Checkpoints, core.Checkpoint{
		Label: label,
		At:    time.Now().UTC(),
		State: snapshot,
	})
	sess.Updated = time.Now().UTC()
	return nil
}

// Restore rolls the session state back to the most recent checkpoint with the
// given label.
func (s *InMemoryStore) Restore(sessionID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	for i := len(sess.Checkpoints) - 1; i >= 0; i-- {
		if sess.Checkpoints[i].Label != label {
			continue
		}
		restored := make(map[string]any, len(sess.Checkpoints[i].State))
		for k, v := range sess.Checkpoints[i].State {
			restored[k] = v
		}
		sess.State = restored
		sess.Updated = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("checkpoint %q not found in session %q", label, sessionID)
}

// ListByUser returns snapshots of the user's sessions in creation order.
func (s *InMemoryStore) ListByUser(userID string) []*core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	out := make([]*core.Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.sessions[id]; ok {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// DeleteUser removes every session belonging to the user and reports how
// many were removed. Part of the user-data erasure cascade.
func (s *InMemoryStore) DeleteUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byUser[userID]
	for _, id := range ids {
		delete(s.sessions, id)
	}
	delete(s.byUser, userID)
	return len(ids)
}

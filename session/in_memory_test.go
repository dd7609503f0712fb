package session

import (
	"errors"
	"testing"

	"github.com/hupe1980/prism/core"
)

func TestCreateAndGet(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Create("alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	if sess.Status != core.SessionActive {
		t.Errorf("expected active status, got %s", sess.Status)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "alice" {
		t.Errorf("expected user alice, got %s", got.UserID)
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewInMemoryStore()

	if _, err := store.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPauseResume(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create("alice")

	if err := store.Pause(sess.ID); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	got, _ := store.Get(sess.ID)
	if got.Status != core.SessionPaused {
		t.Errorf("expected paused, got %s", got.Status)
	}

	if err := store.Resume(sess.ID); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	got, _ = store.Get(sess.ID)
	if got.Status != core.SessionActive {
		t.Errorf("expected active, got %s", got.Status)
	}
}

func TestAppendTrace(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create("alice")

	if err := store.AppendTrace(sess.ID, "trace-1"); err != nil {
		t.Fatalf("AppendTrace failed: %v", err)
	}
	if err := store.AppendTrace(sess.ID, "trace-2"); err != nil {
		t.Fatalf("AppendTrace failed: %v", err)
	}

	got, _ := store.Get(sess.ID)
	if len(got.Traces) != 2 || got.Traces[0] != "trace-1" || got.Traces[1] != "trace-2" {
		t.Errorf("expected ordered traces, got %v", got.Traces)
	}
}

func TestApplyDelta(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create("alice")

	if err := store.ApplyDelta(sess.ID, map[string]any{"mood": "hopeful"}); err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}

	got, _ := store.Get(sess.ID)
	if got.State["mood"] != "hopeful" {
		t.Errorf("expected merged state, got %v", got.State)
	}

	// Snapshots must not alias internal state.
	got.State["mood"] = "mutated"
	again, _ := store.Get(sess.ID)
	if again.State["mood"] != "hopeful" {
		t.Error("external mutation leaked into the store")
	}
}

func TestCheckpointAndRestore(t *testing.T) {
	store := NewInMemoryStore()
	sess, _ := store.Create("alice")

	store.ApplyDelta(sess.ID, map[string]any{"mood": "hopeful"})
	if err := store.Checkpoint(sess.ID, "before-session"); err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}
	store.ApplyDelta(sess.ID, map[string]any{"mood": "anxious"})

	if err := store.Restore(sess.ID, "before-session"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	got, _ := store.Get(sess.ID)
	if got.State["mood"] != "hopeful" {
		t.Errorf("expected restored state, got %v", got.State)
	}

	if err := store.Restore(sess.ID, "no-such-label"); err == nil {
		t.Error("expected error for unknown checkpoint label")
	}
}

func TestDeleteUserCascade(t *testing.T) {
	store := NewInMemoryStore()
	a1, _ := store.Create("alice")
	a2, _ := store.Create("alice")
	b, _ := store.Create("bob")

	n := store.DeleteUser("alice")
	if n != 2 {
		t.Errorf("expected 2 deleted sessions, got %d", n)
	}

	for _, id := range []string{a1.ID, a2.ID} {
		if _, err := store.Get(id); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("expected session %s gone, got %v", id, err)
		}
	}
	if _, err := store.Get(b.ID); err != nil {
		t.Errorf("bob's session should survive, got %v", err)
	}

	if n := store.DeleteUser("alice"); n != 0 {
		t.Errorf("expected 0 on repeated erasure, got %d", n)
	}
}

func TestListByUser(t *testing.T) {
	store := NewInMemoryStore()
	first, _ := store.Create("alice")
	second, _ := store.Create("alice")
	store.Create("bob")

	sessions := store.ListByUser("alice")
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Error("expected creation order")
	}
}

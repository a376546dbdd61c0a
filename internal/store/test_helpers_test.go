package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestAction creates an applied action with a small JSON state.
func createTestAction(seq int64, sessionID, kind string, arg int) Action {
	return Action{
		Seq:       seq,
		SessionID: sessionID,
		Kind:      kind,
		Arg:       arg,
		Applied:   true,
		State:     json.RawMessage(`{"n":1}`),
	}
}

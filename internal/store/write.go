package store

import (
	"context"
	"fmt"
)

// WriteSession records a session. Uses ON CONFLICT(id) DO NOTHING, so
// rewriting a known session is silently ignored.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, game, seed, started_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Game,
		sess.Seed,
		sess.StartedSeq,
	)
	if err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	return nil
}

// WriteAction records a processed action. Uses ON CONFLICT(seq) DO NOTHING
// for idempotency.
//
// Note: The session referenced by SessionID must exist (foreign key
// constraint).
func (s *Store) WriteAction(ctx context.Context, a Action) error {
	state := string(a.State)
	if state == "" {
		state = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (seq, session_id, kind, arg, applied, state)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		a.Seq,
		a.SessionID,
		a.Kind,
		a.Arg,
		boolToInt(a.Applied),
		state,
	)
	if err != nil {
		return fmt.Errorf("write action seq=%d: %w", a.Seq, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

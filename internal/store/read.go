package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ListSessions returns every recorded session in start order:
// ORDER BY started_seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game, seed, started_seq
		FROM sessions
		ORDER BY started_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Game, &sess.Seed, &sess.StartedSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session by ID. Returns an error wrapping
// ErrNotFound if it was never recorded.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, game, seed, started_seq
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Game, &sess.Seed, &sess.StartedSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ReadActions returns the action timeline of one session:
// ORDER BY seq ASC, session_id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no actions.
func (s *Store) ReadActions(ctx context.Context, sessionID string) ([]Action, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, session_id, kind, arg, applied, state
		FROM actions
		WHERE session_id = ?
		ORDER BY seq ASC, session_id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	actions := []Action{}
	for rows.Next() {
		var (
			a       Action
			applied int
			state   string
		)
		if err := rows.Scan(&a.Seq, &a.SessionID, &a.Kind, &a.Arg, &applied, &state); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		a.Applied = applied == 1
		a.State = json.RawMessage(state)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}

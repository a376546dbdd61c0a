package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/arcade/internal/ids"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/store"
	"github.com/roach88/arcade/internal/tictactoe"
	"github.com/roach88/arcade/internal/timer"
)

// ReplaySource reads a recorded session. *store.Store implements it.
type ReplaySource interface {
	ReadSession(ctx context.Context, id string) (store.Session, error)
	ReadActions(ctx context.Context, sessionID string) ([]store.Action, error)
}

// Divergence is the first recorded action whose recomputed outcome differs
// from the trace.
type Divergence struct {
	Seq         int64  `json:"seq"`
	Kind        string `json:"kind"`
	WantApplied bool   `json:"want_applied"`
	GotApplied  bool   `json:"got_applied"`
	Want        string `json:"want"`
	Got         string `json:"got"`
}

// ReplayReport summarizes one replayed session.
type ReplayReport struct {
	SessionID  string      `json:"session_id"`
	Game       string      `json:"game"`
	Actions    int         `json:"actions"`
	Divergence *Divergence `json:"divergence,omitempty"`
}

// OK reports whether the replay matched the trace.
func (r ReplayReport) OK() bool { return r.Divergence == nil }

// replayStep re-applies one recorded action and returns whether it applied
// and the snapshot it produced.
type replayStep func(a store.Action) (bool, any, error)

// Replay rebuilds a recorded session from its seed and action list and
// checks every recomputed snapshot against the recorded one.
//
// A divergence is reported in the ReplayReport, not as an error. Errors
// mean the trace could not be read or is malformed.
//
// Replay never touches a live engine: the session runs on a manual
// scheduler and each recorded tick advances it by one interval.
func Replay(ctx context.Context, src ReplaySource, sessionID string) (ReplayReport, error) {
	sess, err := src.ReadSession(ctx, sessionID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay: %w", err)
	}
	actions, err := src.ReadActions(ctx, sessionID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay %s: %w", sessionID, err)
	}

	report := ReplayReport{SessionID: sess.ID, Game: sess.Game, Actions: len(actions)}
	if len(actions) == 0 {
		return report, fmt.Errorf("replay %s: no recorded actions", sessionID)
	}

	var step replayStep
	switch sess.Game {
	case store.GameStarMatch:
		step, err = starMatchReplayer(sess, actions[0])
		if err != nil {
			return report, fmt.Errorf("replay %s: %w", sessionID, err)
		}
	case store.GameTicTacToe:
		step = ticTacToeReplayer(sess)
	default:
		return report, fmt.Errorf("replay %s: unknown game %q", sessionID, sess.Game)
	}

	for _, a := range actions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		applied, snap, err := step(a)
		if err != nil {
			return report, fmt.Errorf("replay %s seq=%d: %w", sessionID, a.Seq, err)
		}
		got, err := json.Marshal(snap)
		if err != nil {
			return report, fmt.Errorf("replay %s seq=%d: encode: %w", sessionID, a.Seq, err)
		}
		want := compactJSON(a.State)
		if applied != a.Applied || !bytes.Equal(got, want) {
			report.Divergence = &Divergence{
				Seq:         a.Seq,
				Kind:        a.Kind,
				WantApplied: a.Applied,
				GotApplied:  applied,
				Want:        string(want),
				Got:         string(got),
			}
			return report, nil
		}
	}
	return report, nil
}

func starMatchReplayer(sess store.Session, first store.Action) (replayStep, error) {
	var opening starmatch.Snapshot
	if err := json.Unmarshal(first.State, &opening); err != nil {
		return nil, fmt.Errorf("decode opening state: %w", err)
	}
	if opening.SecondsLeft < 1 {
		return nil, fmt.Errorf("opening state has %d seconds", opening.SecondsLeft)
	}

	clock := timer.NewManual()
	s := starmatch.NewSession(
		starmatch.WithSeed(sess.Seed),
		starmatch.WithSeconds(opening.SecondsLeft),
		starmatch.WithScheduler(clock),
		starmatch.WithIDGenerator(ids.NewFixedGenerator(sess.ID)),
	)

	return func(a store.Action) (bool, any, error) {
		switch ActionKind(a.Kind) {
		case KindStart, KindRestartStarMatch:
			return true, s.Snapshot(), nil
		case KindSelectNumber:
			snap, ok := s.Select(a.Arg)
			return ok, snap, nil
		case KindTick:
			fired := clock.Advance(starmatch.DefaultTick)
			return fired > 0, s.Snapshot(), nil
		default:
			return false, nil, fmt.Errorf("unexpected %s action in star match trace", a.Kind)
		}
	}, nil
}

func ticTacToeReplayer(sess store.Session) replayStep {
	g := tictactoe.NewGame(ids.NewFixedGenerator(sess.ID))

	return func(a store.Action) (bool, any, error) {
		switch ActionKind(a.Kind) {
		case KindStart:
			return true, g.Snapshot(), nil
		case KindMovePiece:
			snap, ok := g.Move(a.Arg)
			return ok, snap, nil
		case KindRestartBoard:
			return true, g.RestartBoard(), nil
		case KindResetScoreboard:
			return true, g.ResetScoreboard(), nil
		default:
			return false, nil, fmt.Errorf("unexpected %s action in tic-tac-toe trace", a.Kind)
		}
	}
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

package harness

import (
	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/tictactoe"
)

// TraceEvent is one processed action of the scenario's game, in loop
// order. Exactly one of StarMatch and TicTacToe is set.
type TraceEvent struct {
	Seq       int64           `json:"seq"`
	Kind      string          `json:"kind"`
	Arg       int             `json:"arg"`
	Applied   bool            `json:"applied"`
	StarMatch *StarMatchState `json:"starmatch,omitempty"`
	TicTacToe *TicTacToeState `json:"tictactoe,omitempty"`
}

// StarMatchState is the part of a Star Match snapshot kept in traces.
type StarMatchState struct {
	Stars       int                   `json:"stars"`
	Available   []int                 `json:"available"`
	Candidates  []int                 `json:"candidates"`
	SecondsLeft int                   `json:"seconds_left"`
	Status      starmatch.RoundStatus `json:"status"`
}

// TicTacToeState is the part of a Tic-Tac-Toe snapshot kept in traces.
type TicTacToeState struct {
	Board  string               `json:"board"`
	Next   tictactoe.Mark       `json:"next"`
	Winner tictactoe.Mark       `json:"winner"`
	Scores tictactoe.Scoreboard `json:"scores"`
}

func newTraceEvent(game string, r engine.Result) TraceEvent {
	ev := TraceEvent{
		Seq:     r.Seq,
		Kind:    string(r.Kind),
		Arg:     r.Arg,
		Applied: r.Applied,
	}
	switch game {
	case GameStarMatch:
		s := r.StarMatch
		ev.StarMatch = &StarMatchState{
			Stars:       s.Stars,
			Available:   s.Available,
			Candidates:  s.Candidates,
			SecondsLeft: s.SecondsLeft,
			Status:      s.Status,
		}
	case GameTicTacToe:
		s := r.TicTacToe
		ev.TicTacToe = &TicTacToeState{
			Board:  s.Board().String(),
			Next:   s.Next,
			Winner: s.Winner,
			Scores: s.Scores,
		}
	}
	return ev
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace contains the scenario game's processed actions in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the engine view after the last step.
	Final engine.Result `json:"final"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

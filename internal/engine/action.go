package engine

import (
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/tictactoe"
)

// ActionKind names an inbound presentation action, or a loop-generated
// record kind.
type ActionKind string

const (
	KindSelectNumber     ActionKind = "select_number"
	KindRestartStarMatch ActionKind = "restart_starmatch"
	KindMovePiece        ActionKind = "move_piece"
	KindRestartBoard     ActionKind = "restart_board"
	KindResetScoreboard  ActionKind = "reset_scoreboard"
	// KindView returns both snapshots without changing anything. It is
	// never recorded.
	KindView ActionKind = "view"

	// KindStart is recorded when the loop opens a session.
	KindStart ActionKind = "start"
	// KindTick is recorded for every applied countdown tick.
	KindTick ActionKind = "tick"
)

// Action is one request submitted through Do. Arg is the number for
// select_number and the cell index for move_piece.
type Action struct {
	Kind ActionKind `json:"kind"`
	Arg  int        `json:"arg,omitempty"`
}

// SelectNumber builds a select_number action.
func SelectNumber(n int) Action { return Action{Kind: KindSelectNumber, Arg: n} }

// MovePiece builds a move_piece action.
func MovePiece(cell int) Action { return Action{Kind: KindMovePiece, Arg: cell} }

// Result is what the loop hands back for an action, and what observers
// receive after every processed event.
type Result struct {
	Kind ActionKind `json:"kind"`
	// Arg echoes the action argument: the number for select_number, the
	// cell for move_piece, zero otherwise.
	Arg int `json:"arg"`
	// Seq is the logical clock value of the recorded action. Zero for view.
	Seq       int64              `json:"seq,omitempty"`
	Applied   bool               `json:"applied"`
	StarMatch starmatch.Snapshot `json:"starmatch"`
	TicTacToe tictactoe.Snapshot `json:"tictactoe"`
}

package tictactoe

import (
	"github.com/roach88/arcade/internal/ids"
)

// Scoreboard counts finished boards. It outlives board restarts.
type Scoreboard struct {
	XWins int `json:"x_wins"`
	OWins int `json:"o_wins"`
	Draws int `json:"draws"`
}

// Snapshot is a read-only view of a game with derived fields computed
// fresh.
type Snapshot struct {
	GameID      string      `json:"game_id,omitempty"`
	Cells       [Cells]Mark `json:"cells"`
	Next        Mark        `json:"next"`
	Winner      Mark        `json:"winner"`
	Draw        bool        `json:"draw"`
	Terminal    bool        `json:"terminal"`
	Scores      Scoreboard  `json:"scores"`
	Celebration string      `json:"celebration,omitempty"`
	// CanRestart is set once the board is won or full, when a browser
	// front end offers "New Game".
	CanRestart bool `json:"can_restart"`
}

// Board returns the snapshot cells as a Board.
func (s Snapshot) Board() Board { return Board(s.Cells) }

// Game is a Tic-Tac-Toe session: the current board, whose turn it is, and
// the cumulative scoreboard.
//
// Game is not safe for concurrent use; the engine loop owns it.
type Game struct {
	id     string
	board  Board
	next   Mark
	scores Scoreboard
}

// NewGame returns an empty board with X to move and a zeroed scoreboard.
// A nil gen uses UUIDv7 IDs.
func NewGame(gen ids.Generator) *Game {
	if gen == nil {
		gen = ids.UUIDv7Generator{}
	}
	return &Game{id: gen.Generate(), next: X}
}

// ID returns the game identity.
func (g *Game) ID() string { return g.id }

// Board returns a copy of the board.
func (g *Game) Board() Board { return g.board }

// Next returns whose turn it is.
func (g *Game) Next() Mark { return g.next }

// Scores returns the scoreboard.
func (g *Game) Scores() Scoreboard { return g.scores }

// Move claims cell i for the player to move. It reports false without
// changing anything when the board is terminal, i is off the board, or the
// cell is taken.
//
// The move that ends a board updates the scoreboard. Since a terminal
// board accepts no further moves, each board is counted at most once.
func (g *Game) Move(i int) (Snapshot, bool) {
	if IsTerminal(g.board) || i < 0 || i >= Cells || g.board[i] != Empty {
		return g.Snapshot(), false
	}
	next := g.board
	next[i] = g.next
	g.board = next
	g.next = g.next.Other()

	switch w := Winner(g.board); {
	case w == X:
		g.scores.XWins++
	case w == O:
		g.scores.OWins++
	case g.board.Full():
		g.scores.Draws++
	}
	return g.Snapshot(), true
}

// RestartBoard clears the board and gives X the move. Scores are kept.
func (g *Game) RestartBoard() Snapshot {
	g.board = Board{}
	g.next = X
	return g.Snapshot()
}

// ResetScoreboard zeroes every counter. The board is kept.
func (g *Game) ResetScoreboard() Snapshot {
	g.scores = Scoreboard{}
	return g.Snapshot()
}

// Snapshot builds the presentation view of the game.
func (g *Game) Snapshot() Snapshot {
	w := Winner(g.board)
	snap := Snapshot{
		GameID:   g.id,
		Cells:    g.board,
		Next:     g.next,
		Winner:   w,
		Draw:     IsDraw(g.board),
		Terminal: IsTerminal(g.board),
		Scores:   g.scores,
	}
	snap.CanRestart = snap.Terminal
	if w != Empty {
		snap.Celebration = w.String() + " wins!"
	}
	return snap
}

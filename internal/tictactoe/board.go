// Package tictactoe implements the Tic-Tac-Toe engine: a 3x3 board, turn
// order, win and draw detection, and a scoreboard that survives board
// restarts.
package tictactoe

import (
	"fmt"
	"strings"
)

// Mark is the content of one cell.
type Mark int

const (
	// Empty is an unclaimed cell, and also "no winner".
	Empty Mark = iota
	// X always moves first.
	X
	// O moves second.
	O
)

// String returns "X", "O" or "" for Empty.
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Other returns the opponent of m. Other(Empty) is Empty.
func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// MarshalText encodes m as "X", "O" or "".
func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes "X", "O" or "" (case-insensitive).
func (m *Mark) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "X":
		*m = X
	case "O":
		*m = O
	case "":
		*m = Empty
	default:
		return fmt.Errorf("unknown mark %q", string(b))
	}
	return nil
}

// Cells is the number of cells on the board.
const Cells = 9

// Board is the 3x3 grid in row-major order. It is a value: assigning or
// passing it copies every cell.
type Board [Cells]Mark

// lines are the winning lines in evaluation order: rows, columns, diagonals.
var lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner returns the mark filling the first complete line, or Empty.
func Winner(b Board) Mark {
	for _, l := range lines {
		a := b[l[0]]
		if a != Empty && a == b[l[1]] && a == b[l[2]] {
			return a
		}
	}
	return Empty
}

// Full reports whether every cell is claimed.
func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// IsDraw reports a full board with no winner.
func IsDraw(b Board) bool {
	return Winner(b) == Empty && b.Full()
}

// IsTerminal reports whether no further move is legal.
func IsTerminal(b Board) bool {
	return Winner(b) != Empty || b.Full()
}

// ParseBoard reads a 9-character board such as "XO.X..O..", where '.',
// '_' or ' ' is an empty cell.
func ParseBoard(s string) (Board, error) {
	var b Board
	if len(s) != Cells {
		return b, fmt.Errorf("board %q: want %d cells, got %d", s, Cells, len(s))
	}
	for i, r := range s {
		switch r {
		case 'X', 'x':
			b[i] = X
		case 'O', 'o':
			b[i] = O
		case '.', '_', ' ':
			b[i] = Empty
		default:
			return b, fmt.Errorf("board %q: bad cell %q at %d", s, r, i)
		}
	}
	return b, nil
}

// String renders the board in the ParseBoard format.
func (b Board) String() string {
	var sb strings.Builder
	for _, m := range b {
		if m == Empty {
			sb.WriteByte('.')
			continue
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}

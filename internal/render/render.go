// Package render draws game snapshots as plain text for the terminal REPL.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/tictactoe"
)

const (
	starMatchHelp = "Pick 1 or more numbers that sum to the number of stars"
	playAgainHint = `Type "restart" to play again`
	newBoardHint  = `Type "restart" for a new board`
	boardDivider  = "---+---+---"
)

// StarMatch writes the help line, the stars (or the play-again banner
// once the round is over), the number pad and the countdown.
func StarMatch(w io.Writer, snap starmatch.Snapshot) error {
	// Casers are stateful; one per call.
	title := cases.Title(language.English)

	var b strings.Builder
	b.WriteString(starMatchHelp + "\n\n")
	if snap.Status == starmatch.RoundActive {
		fmt.Fprintf(&b, "Stars: %s\n", strings.TrimSpace(strings.Repeat("* ", snap.Stars)))
	} else {
		fmt.Fprintf(&b, "%s  %s\n", snap.Message, playAgainHint)
	}
	b.WriteString("\n")
	for _, n := range snap.Numbers {
		fmt.Fprintf(&b, "  %d  %s\n", n.Number, title.String(string(n.Status)))
	}
	fmt.Fprintf(&b, "\nTime Remaining: %d\n", snap.SecondsLeft)

	_, err := io.WriteString(w, b.String())
	return err
}

// TicTacToe writes the scoreboard, the grid (empty cells show their
// index), the celebration or whose turn it is, and the new-board hint.
func TicTacToe(w io.Writer, snap tictactoe.Snapshot) error {
	var b strings.Builder
	s := snap.Scores
	fmt.Fprintf(&b, "X wins: %d  O wins: %d  Draws: %d\n\n", s.XWins, s.OWins, s.Draws)

	for row := 0; row < 3; row++ {
		if row > 0 {
			b.WriteString(boardDivider + "\n")
		}
		i := row * 3
		fmt.Fprintf(&b, " %s | %s | %s\n",
			cellLabel(snap.Cells[i], i),
			cellLabel(snap.Cells[i+1], i+1),
			cellLabel(snap.Cells[i+2], i+2),
		)
	}
	b.WriteString("\n")

	switch {
	case snap.Celebration != "":
		b.WriteString(snap.Celebration + "\n")
	case snap.Draw:
		b.WriteString("Draw!\n")
	default:
		fmt.Fprintf(&b, "Next player: %s\n", snap.Next)
	}
	b.WriteString(newBoardHint + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func cellLabel(m tictactoe.Mark, i int) string {
	if m == tictactoe.Empty {
		return strconv.Itoa(i)
	}
	return m.String()
}

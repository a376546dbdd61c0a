package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/tictactoe"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		mark := "applied"
		if !event.Applied {
			mark = "rejected"
		}
		fmt.Fprintf(&buf, "  [%d] %s %d (%s)\n", event.Seq, event.Kind, event.Arg, mark)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against a result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	final := result.Final
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: result.Trace}
	}

	switch a.Type {
	case AssertRoundStatus:
		if got := final.StarMatch.Status; got != starmatch.RoundStatus(a.Expect) {
			return fail(a.Expect, string(got))
		}

	case AssertAvailable:
		want := *a.Numbers
		if got := final.StarMatch.Available; !slices.Equal(got, want) {
			return fail(fmt.Sprint(want), fmt.Sprint(got))
		}

	case AssertSecondsLeft:
		if got := final.StarMatch.SecondsLeft; got != *a.Value {
			return fail(fmt.Sprint(*a.Value), fmt.Sprint(got))
		}

	case AssertWinner:
		got := winnerName(final.TicTacToe.Winner)
		if got != a.Expect {
			return fail(a.Expect, got)
		}

	case AssertScores:
		want := tictactoe.Scoreboard{XWins: a.Scores.XWins, OWins: a.Scores.OWins, Draws: a.Scores.Draws}
		if got := final.TicTacToe.Scores; got != want {
			return fail(fmt.Sprintf("%+v", want), fmt.Sprintf("%+v", got))
		}

	case AssertAppliedCount:
		if got := appliedCount(result.Trace); got != *a.Value {
			return fail(fmt.Sprintf("%d applied actions", *a.Value), fmt.Sprintf("%d applied actions", got))
		}

	default:
		return fail("known assertion type", a.Type)
	}
	return nil
}

func winnerName(m tictactoe.Mark) string {
	if m == tictactoe.Empty {
		return "none"
	}
	return m.String()
}

func appliedCount(trace []TraceEvent) int {
	n := 0
	for _, ev := range trace {
		if ev.Applied && ev.Kind != string(engine.KindTick) {
			n++
		}
	}
	return n
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/starmatch"
	"github.com/roach88/arcade/internal/tictactoe"
)

func starResult(status starmatch.RoundStatus, available []int, seconds int) *Result {
	r := NewResult()
	r.Final = engine.Result{StarMatch: starmatch.Snapshot{
		State:  starmatch.State{Available: available, SecondsLeft: seconds},
		Status: status,
	}}
	return r
}

func TestEvaluateAssertions_StarMatch(t *testing.T) {
	r := starResult(starmatch.RoundActive, []int{2, 7}, 4)

	assert.Empty(t, EvaluateAssertions(r, []Assertion{
		{Type: AssertRoundStatus, Expect: "active"},
		{Type: AssertAvailable, Numbers: &[]int{2, 7}},
		{Type: AssertSecondsLeft, Value: intPtr(4)},
	}))

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertRoundStatus, Expect: "won"},
		{Type: AssertAvailable, Numbers: &[]int{2}},
		{Type: AssertSecondsLeft, Value: intPtr(3)},
	})
	assert.Len(t, errs, 3)
}

func TestEvaluateAssertions_TicTacToe(t *testing.T) {
	r := NewResult()
	r.Final = engine.Result{TicTacToe: tictactoe.Snapshot{
		Winner: tictactoe.O,
		Scores: tictactoe.Scoreboard{OWins: 2, Draws: 1},
	}}

	assert.Empty(t, EvaluateAssertions(r, []Assertion{
		{Type: AssertWinner, Expect: "O"},
		{Type: AssertScores, Scores: &Scores{OWins: 2, Draws: 1}},
	}))

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertWinner, Expect: "none"}})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: none")
	assert.Contains(t, errs[0], "Actual: O")
}

func TestEvaluateAssertions_AppliedCountSkipsTicks(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Seq: 3, Kind: string(engine.KindSelectNumber), Arg: 1, Applied: true},
		{Seq: 4, Kind: string(engine.KindTick), Applied: true},
		{Seq: 5, Kind: string(engine.KindSelectNumber), Arg: 1, Applied: false},
		{Seq: 6, Kind: string(engine.KindRestartStarMatch), Applied: true},
	}

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertAppliedCount, Value: intPtr(2)}}))
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertAppliedCount,
		Expected: "2 applied actions",
		Actual:   "1 applied actions",
		Trace: []TraceEvent{
			{Seq: 3, Kind: "move_piece", Arg: 4, Applied: true},
			{Seq: 4, Kind: "move_piece", Arg: 4, Applied: false},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: applied_count")
	assert.Contains(t, msg, "[3] move_piece 4 (applied)")
	assert.Contains(t, msg, "[4] move_piece 4 (rejected)")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "vibes"}})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "vibes")
}

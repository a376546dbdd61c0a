package starmatch

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/arcade/internal/numeric"
)

const (
	// MaxNumber is the highest number on the pad; the pad is 1..MaxNumber.
	MaxNumber = 9
	// StarBound caps every generated star count.
	StarBound = 9
	// DefaultSeconds is the countdown length of a new puzzle.
	DefaultSeconds = 10
)

// ErrInvalidState is wrapped by FromState when a state breaks a puzzle
// invariant.
var ErrInvalidState = errors.New("invalid star match state")

// State is the stored part of a puzzle. Everything else is derived.
type State struct {
	Stars       int   `json:"stars"`
	Available   []int `json:"available"`
	Candidates  []int `json:"candidates"`
	SecondsLeft int   `json:"seconds_left"`
}

// clone returns a deep copy with non-nil slices.
func (s State) clone() State {
	return State{
		Stars:       s.Stars,
		Available:   append([]int{}, s.Available...),
		Candidates:  append([]int{}, s.Candidates...),
		SecondsLeft: s.SecondsLeft,
	}
}

// Equal reports whether two states hold the same values.
func (s State) Equal(o State) bool {
	return s.Stars == o.Stars &&
		s.SecondsLeft == o.SecondsLeft &&
		slices.Equal(s.Available, o.Available) &&
		slices.Equal(s.Candidates, o.Candidates)
}

// Puzzle is an immutable Star Match state. Transitions return a new Puzzle
// and never touch the receiver.
type Puzzle struct {
	st State
}

// NewPuzzle returns the starting puzzle: a random star count in 1..9, all
// nine numbers available, no candidates, and seconds on the clock.
func NewPuzzle(src numeric.Source, seconds int) Puzzle {
	return Puzzle{st: State{
		Stars:       numeric.RandomInt(src, 1, StarBound),
		Available:   numeric.Range(1, MaxNumber),
		Candidates:  []int{},
		SecondsLeft: seconds,
	}}
}

// FromState validates st and wraps it in a Puzzle.
func FromState(st State) (Puzzle, error) {
	if st.SecondsLeft < 0 {
		return Puzzle{}, fmt.Errorf("%w: seconds_left %d is negative", ErrInvalidState, st.SecondsLeft)
	}
	prev := 0
	for _, n := range st.Available {
		if n < 1 || n > MaxNumber {
			return Puzzle{}, fmt.Errorf("%w: available number %d out of range", ErrInvalidState, n)
		}
		if n <= prev {
			return Puzzle{}, fmt.Errorf("%w: available numbers must be unique and ascending", ErrInvalidState)
		}
		prev = n
	}
	seen := make(map[int]bool, len(st.Candidates))
	for _, n := range st.Candidates {
		if seen[n] {
			return Puzzle{}, fmt.Errorf("%w: candidate %d repeated", ErrInvalidState, n)
		}
		if !slices.Contains(st.Available, n) {
			return Puzzle{}, fmt.Errorf("%w: candidate %d is not available", ErrInvalidState, n)
		}
		seen[n] = true
	}
	if len(st.Available) == 0 {
		if st.Stars != 0 {
			return Puzzle{}, fmt.Errorf("%w: stars must be 0 once every number is used", ErrInvalidState)
		}
		return Puzzle{st: st.clone()}, nil
	}
	if !slices.Contains(numeric.SubsetSums(st.Available, StarBound), st.Stars) {
		return Puzzle{}, fmt.Errorf("%w: %d stars cannot be made from %v", ErrInvalidState, st.Stars, st.Available)
	}
	if len(st.Candidates) > 0 && numeric.Sum(st.Candidates) == st.Stars {
		return Puzzle{}, fmt.Errorf("%w: candidates already match the stars", ErrInvalidState)
	}
	return Puzzle{st: st.clone()}, nil
}

// State returns a copy of the stored state.
func (p Puzzle) State() State { return p.st.clone() }

// Stars returns the current target sum.
func (p Puzzle) Stars() int { return p.st.Stars }

// Available returns the numbers not yet matched, ascending.
func (p Puzzle) Available() []int { return append([]int{}, p.st.Available...) }

// Candidates returns the current picks in selection order.
func (p Puzzle) Candidates() []int { return append([]int{}, p.st.Candidates...) }

// SecondsLeft returns the countdown value.
func (p Puzzle) SecondsLeft() int { return p.st.SecondsLeft }

// CandidatesAreWrong reports whether the picks overshoot the stars.
func (p Puzzle) CandidatesAreWrong() bool {
	return numeric.Sum(p.st.Candidates) > p.st.Stars
}

// NumberStatus returns the pad status of n.
func (p Puzzle) NumberStatus(n int) NumberStatus {
	if !slices.Contains(p.st.Available, n) {
		return StatusUsed
	}
	if slices.Contains(p.st.Candidates, n) {
		if p.CandidatesAreWrong() {
			return StatusWrong
		}
		return StatusCandidate
	}
	return StatusAvailable
}

// RoundStatus derives won, lost or active from the stored state.
func (p Puzzle) RoundStatus() RoundStatus {
	if len(p.st.Available) == 0 {
		return RoundWon
	}
	if p.st.SecondsLeft == 0 {
		return RoundLost
	}
	return RoundActive
}

// TimerRunning reports whether the countdown should keep ticking.
func (p Puzzle) TimerRunning() bool {
	return p.st.SecondsLeft > 0 && len(p.st.Available) > 0
}

// Tick returns the puzzle one second later. Once the timer has stopped,
// Tick is the identity.
func (p Puzzle) Tick() Puzzle {
	if !p.TimerRunning() {
		return p
	}
	next := p.st.clone()
	next.SecondsLeft--
	return Puzzle{st: next}
}

// Select toggles n in the candidate set and evaluates the result. It
// reports false, leaving the puzzle unchanged, when the round is over, n is
// off the pad, or n is already used.
//
// When the new candidates sum to the stars they are consumed: they leave
// the available set, the candidates clear, and a new star count is drawn
// from the subset sums of what remains.
func (p Puzzle) Select(src numeric.Source, n int) (Puzzle, bool) {
	if p.RoundStatus() != RoundActive || n < 1 || n > MaxNumber {
		return p, false
	}
	var candidates []int
	switch p.NumberStatus(n) {
	case StatusUsed:
		return p, false
	case StatusAvailable:
		candidates = append(p.Candidates(), n)
	default:
		candidates = slices.DeleteFunc(p.Candidates(), func(c int) bool { return c == n })
	}
	return p.evaluate(src, candidates), true
}

func (p Puzzle) evaluate(src numeric.Source, candidates []int) Puzzle {
	if numeric.Sum(candidates) != p.st.Stars {
		next := p.st.clone()
		next.Candidates = candidates
		return Puzzle{st: next}
	}

	remaining := slices.DeleteFunc(p.Available(), func(a int) bool {
		return slices.Contains(candidates, a)
	})
	stars := 0
	if len(remaining) > 0 {
		var err error
		stars, err = numeric.RandomSumInBound(src, remaining, StarBound)
		if err != nil {
			// Every remaining number is <= StarBound, so it is a subset on its own.
			panic(fmt.Sprintf("starmatch: %v", err))
		}
	}
	return Puzzle{st: State{
		Stars:       stars,
		Available:   remaining,
		Candidates:  []int{},
		SecondsLeft: p.st.SecondsLeft,
	}}
}

// NumberView is one pad button as the presentation layer sees it.
type NumberView struct {
	Number int          `json:"number"`
	Status NumberStatus `json:"status"`
	Color  string       `json:"color"`
}

// Snapshot is a read-only view of a puzzle with every derived field
// computed fresh.
type Snapshot struct {
	SessionID string `json:"session_id,omitempty"`
	State
	Status             RoundStatus  `json:"status"`
	CandidatesAreWrong bool         `json:"candidates_are_wrong"`
	Numbers            []NumberView `json:"numbers"`
	Message            string       `json:"message,omitempty"`
}

// Snapshot builds the presentation view of p.
func (p Puzzle) Snapshot() Snapshot {
	status := p.RoundStatus()
	numbers := make([]NumberView, 0, MaxNumber)
	for _, n := range numeric.Range(1, MaxNumber) {
		ns := p.NumberStatus(n)
		numbers = append(numbers, NumberView{Number: n, Status: ns, Color: ns.Color()})
	}
	return Snapshot{
		State:              p.State(),
		Status:             status,
		CandidatesAreWrong: p.CandidatesAreWrong(),
		Numbers:            numbers,
		Message:            status.Message(),
	}
}

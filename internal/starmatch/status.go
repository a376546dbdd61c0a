package starmatch

// NumberStatus is the display status of one number on the pad.
type NumberStatus string

const (
	// StatusAvailable marks a number that can be picked.
	StatusAvailable NumberStatus = "available"
	// StatusUsed marks a number consumed by an earlier match.
	StatusUsed NumberStatus = "used"
	// StatusWrong marks a picked number while the picks overshoot the stars.
	StatusWrong NumberStatus = "wrong"
	// StatusCandidate marks a picked number while the picks are still short.
	StatusCandidate NumberStatus = "candidate"
)

// Color returns the pad colour the browser front end uses for s.
func (s NumberStatus) Color() string {
	switch s {
	case StatusAvailable:
		return "lightgray"
	case StatusUsed:
		return "lightgreen"
	case StatusWrong:
		return "lightcoral"
	case StatusCandidate:
		return "deepskyblue"
	default:
		return ""
	}
}

// RoundStatus is the overall state of a play-through.
type RoundStatus string

const (
	// RoundActive means numbers remain and time remains.
	RoundActive RoundStatus = "active"
	// RoundWon means every number has been matched.
	RoundWon RoundStatus = "won"
	// RoundLost means the countdown reached zero first.
	RoundLost RoundStatus = "lost"
)

// Message is the play-again banner text for a finished round.
func (r RoundStatus) Message() string {
	switch r {
	case RoundWon:
		return "Nice!"
	case RoundLost:
		return "Game Over"
	default:
		return ""
	}
}

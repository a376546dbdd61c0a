// Package starmatch implements the Star Match puzzle engine.
//
// The player is shown a number of stars and must pick one or more of the
// numbers 1..9 that sum to it before the countdown runs out. Matched
// numbers are consumed; the next star count is always drawn from sums the
// remaining numbers can still reach.
//
// The package has two layers:
//
//   - Puzzle is an immutable value with pure transitions (Select, Tick) and
//     derived status (NumberStatus, RoundStatus). It never schedules
//     anything.
//   - Session is the controller for one play-through. It owns the seeded
//     PRNG, the session identity and the countdown task, and restarts by
//     returning a brand new Session.
//
// Derived fields are always computed from the stored state on demand and
// are never stored next to it.
package starmatch

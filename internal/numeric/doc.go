// Package numeric provides the small integer helpers behind Star Match
// puzzle generation: sums, inclusive ranges, uniform random integers and
// random subset-sum selection.
//
// All randomness flows through a Source so that callers can seed it and
// replay a puzzle exactly.
package numeric

package numeric

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoSubset is returned by RandomSumInBound when no non-empty subset of
// the input sums to a value within the bound. An empty input always yields
// this error.
var ErrNoSubset = errors.New("no non-empty subset within bound")

// Source is the subset of a PRNG that the helpers need.
// *math/rand/v2.Rand satisfies it.
type Source interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// Sum returns the total of values. Sum(nil) is 0.
func Sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// Range returns the inclusive ascending sequence [min, min+1, ..., max].
// If max < min the result is empty (never nil).
func Range(min, max int) []int {
	if max < min {
		return []int{}
	}
	out := make([]int, 0, max-min+1)
	for v := min; v <= max; v++ {
		out = append(out, v)
	}
	return out
}

// RandomInt returns a uniformly chosen integer in [min, max].
// It panics if min > max.
func RandomInt(src Source, min, max int) int {
	if min > max {
		panic(fmt.Sprintf("numeric: RandomInt min %d > max %d", min, max))
	}
	return min + src.IntN(max-min+1)
}

// RandomSumInBound enumerates every non-empty subset of values whose sum is
// at most bound and returns one of those sums chosen uniformly. A sum that
// several subsets reach is proportionally more likely.
//
// Subsets are grown in input order: for each value, every subset accepted so
// far (starting from the empty set) is extended by it. Only subset sums are
// kept, so memory is proportional to the number of accepted subsets. The
// cost is exponential in len(values); callers keep it at nine or fewer.
func RandomSumInBound(src Source, values []int, bound int) (int, error) {
	sums := subsetSums(values, bound)
	if len(sums) == 0 {
		return 0, fmt.Errorf("random sum of %v within %d: %w", values, bound, ErrNoSubset)
	}
	return sums[RandomInt(src, 0, len(sums)-1)], nil
}

// SubsetSums returns every distinct non-empty subset sum of values that is
// at most bound, in ascending order.
func SubsetSums(values []int, bound int) []int {
	sums := subsetSums(values, bound)
	if len(sums) == 0 {
		return []int{}
	}
	slices.Sort(sums)
	return slices.Compact(sums)
}

// subsetSums returns the sum of every accepted non-empty subset, one entry
// per subset, in enumeration order.
func subsetSums(values []int, bound int) []int {
	setSums := []int{0}
	var sums []int
	for _, v := range values {
		for j, n := 0, len(setSums); j < n; j++ {
			s := setSums[j] + v
			if s <= bound {
				setSums = append(setSums, s)
				sums = append(sums, s)
			}
		}
	}
	return sums
}

// Package random provides seed generation and seeded PRNG construction.
//
// Seeds come from crypto/rand; the generators built from them are
// deterministic so a recorded game can be replayed from its seed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// MustSeed is like NewSeed but panics on failure.
func MustSeed() int64 {
	seed, err := NewSeed()
	if err != nil {
		panic(err)
	}
	return seed
}

// New returns a PCG-backed generator for seed. Two generators built from
// the same seed produce the same sequence.
func New(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

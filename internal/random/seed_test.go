package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "two crypto seeds should differ")
}

func TestNew_Deterministic(t *testing.T) {
	r1 := New(12345)
	r2 := New(12345)
	for i := 0; i < 100; i++ {
		assert.Equal(t, r1.IntN(1000), r2.IntN(1000))
	}
}

func TestNew_DifferentSeeds(t *testing.T) {
	r1 := New(1)
	r2 := New(2)
	same := true
	for i := 0; i < 20; i++ {
		if r1.IntN(1<<30) != r2.IntN(1<<30) {
			same = false
		}
	}
	assert.False(t, same)
}

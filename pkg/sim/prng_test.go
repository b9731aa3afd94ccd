package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXorShift32(t *testing.T) {
	g := NewXorShift32(1)
	require.Equal(t, uint32(270369), g.Next())

	a, b := NewXorShift32(42), NewXorShift32(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Next(), b.Next())
	}
}

func TestXorShift32ZeroSeed(t *testing.T) {
	g := NewXorShift32(0)
	require.Equal(t, NewXorShift32(1).Next(), g.Next())
}

func TestChance(t *testing.T) {
	g := NewXorShift32(7)
	for i := 0; i < 100; i++ {
		require.False(t, g.Chance(0))
		require.True(t, g.Chance(1))
	}

	hits := 0
	for i := 0; i < 10000; i++ {
		if g.Chance(0.5) {
			hits++
		}
	}
	require.True(t, hits > 3000 && hits < 7000, "hits %d", hits)
}

func TestIntn(t *testing.T) {
	g := NewXorShift32(9)
	for i := 0; i < 1000; i++ {
		v := g.Intn(8)
		require.True(t, v >= 0 && v < 8)
	}
}

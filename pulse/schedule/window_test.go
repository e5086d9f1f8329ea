package schedule

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/resonance/resonance"
)

func TestNextWindow_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(96))
	nows := []uint64{0, 1, 95, 96, 97, 1000, math.MaxUint64 / 2}
	for i := 0; i < 200; i++ {
		nows = append(nows, rng.Uint64()>>8)
	}

	for _, now := range nows {
		for r := 0; r < resonance.Classes; r++ {
			class := resonance.Class(r)
			w := NextWindow(now, class)
			require.Equal(t, uint64(0), (w+uint64(r))%Period, "now=%d r=%d", now, r)
			require.GreaterOrEqual(t, w, now)
			require.LessOrEqual(t, w, now+95)
			// smallest: no earlier slot qualifies
			for s := now; s < w; s++ {
				if (s+uint64(r))%Period == 0 {
					t.Fatalf("slot %d precedes NextWindow(%d, %d) = %d", s, now, r, w)
				}
			}
		}
	}
}

func TestNextWindow_Examples(t *testing.T) {
	tests := []struct {
		now  uint64
		r    resonance.Class
		want uint64
	}{
		{0, 0, 0},
		{1, 0, 96},
		{0, 1, 95},
		{95, 1, 95},
		{96, 1, 191},
		{10, 86, 10},
		{10, 95, 97},
		{100, 0, 192},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextWindow(tt.now, tt.r), "now=%d r=%d", tt.now, tt.r)
	}
}

func TestNextWindow_ClassAboveRange(t *testing.T) {
	assert.Equal(t, NextWindow(7, 4), NextWindow(7, 100))
}

func TestNextWindow_NoIntermediateOverflow(t *testing.T) {
	now := uint64(math.MaxUint64 - 200)
	w := NextWindow(now, 95)
	assert.Equal(t, uint64(0), (w%Period+95)%Period)
	assert.GreaterOrEqual(t, w, now)
}

func TestNextWindowChecked_TopOfRange(t *testing.T) {
	_, ok := NextWindowChecked(math.MaxUint64-10, 0)
	assert.False(t, ok)

	w, ok := NextWindowChecked(MaxNow, 0)
	require.True(t, ok)
	assert.Equal(t, NextWindow(MaxNow, 0), w)
	assert.GreaterOrEqual(t, w, uint64(MaxNow))

	w, ok = NextWindowChecked(1000, 17)
	require.True(t, ok)
	assert.Equal(t, NextWindow(1000, 17), w)
}

func TestWindows_StopsBeforeWrap(t *testing.T) {
	now := uint64(math.MaxUint64 - 3*Period)
	got := Windows(now, 0, 10)
	require.NotEmpty(t, got)
	assert.Less(t, len(got), 10)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
	assert.Nil(t, Windows(math.MaxUint64-10, 0, 3))
}

func TestWindows(t *testing.T) {
	got := Windows(1, 0, 3)
	assert.Equal(t, []uint64{96, 192, 288}, got)
	assert.Nil(t, Windows(1, 0, 0))
}

func TestClassAt_InverseOfNextWindow(t *testing.T) {
	for now := uint64(0); now < 3*Period; now++ {
		c := ClassAt(now)
		assert.Equal(t, now, NextWindow(now, c), "slot %d opens class %d", now, c)
		assert.Zero(t, Wait(now, c))
	}
}

func TestEveryClassOncePerPeriod(t *testing.T) {
	var seen [resonance.Classes]int
	for s := uint64(500); s < 500+Period; s++ {
		seen[ClassAt(s)]++
	}
	for r, n := range seen {
		assert.Equal(t, 1, n, "class %d", r)
	}
}

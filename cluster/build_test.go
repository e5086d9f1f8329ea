package cluster

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/resonance"
)

func randomRegion(seed int64, pages int) []byte {
	buf := make([]byte, pages*resonance.PageSize)
	rand.New(rand.NewSource(seed)).Read(buf)
	return buf
}

// checkView asserts offsets shape, homogeneity, ordering and coverage.
func checkView(t *testing.T, v *View, buf []byte, pages int) {
	t.Helper()
	n := pages * resonance.PageSize

	require.Len(t, v.Offsets, resonance.Classes+1)
	require.Len(t, v.Indices, n)
	assert.Equal(t, uint32(0), v.Offsets[0])
	assert.Equal(t, uint32(n), v.Offsets[resonance.Classes])
	assert.Equal(t, n, v.Len())

	seen := make([]bool, n)
	for r := 0; r < resonance.Classes; r++ {
		require.LessOrEqual(t, v.Offsets[r], v.Offsets[r+1])
		bucket := v.Class(r)
		for i, coord := range bucket {
			require.Less(t, int(coord), n)
			require.Equal(t, resonance.Class(r), resonance.Classify(buf[coord]), "coord %d in bucket %d", coord, r)
			if i > 0 {
				require.Less(t, bucket[i-1], coord, "bucket %d not ascending", r)
			}
			require.False(t, seen[coord], "coord %d listed twice", coord)
			seen[coord] = true
		}
	}
	for coord, ok := range seen {
		require.True(t, ok, "coord %d missing", coord)
	}
}

func TestBuild_Invariants(t *testing.T) {
	for _, pages := range []int{1, 3, resonance.Pages} {
		buf := randomRegion(int64(pages), pages)
		v, err := Build(buf, pages)
		require.NoError(t, err)
		checkView(t, v, buf, pages)
	}
}

func TestBuild_MatchesHistogram(t *testing.T) {
	buf := randomRegion(9, resonance.Pages)
	v, err := Build(buf, resonance.Pages)
	require.NoError(t, err)
	assert.Equal(t, resonance.HistogramRegion(buf), v.Histogram())
}

func TestBuild_UniformPage(t *testing.T) {
	buf := make([]byte, resonance.PageSize)
	for i := range buf {
		buf[i] = 97 // class 1
	}
	v, err := Build(buf, 1)
	require.NoError(t, err)

	assert.Equal(t, resonance.PageSize, v.Count(1))
	assert.Zero(t, v.Count(0))
	assert.Zero(t, v.Count(95))
	assert.Nil(t, v.Class(-1))
	assert.Nil(t, v.Class(resonance.Classes))
}

func TestBuild_IgnoresTrailingBytes(t *testing.T) {
	buf := randomRegion(4, 3)
	v, err := Build(buf, 2)
	require.NoError(t, err)
	checkView(t, v, buf[:2*resonance.PageSize], 2)
}

func TestBuild_InvalidArguments(t *testing.T) {
	_, err := Build(make([]byte, resonance.PageSize), 0)
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))

	_, err = Build(make([]byte, resonance.PageSize), 2)
	assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err))

	_, err = Build(nil, maxPages+1)
	assert.Equal(t, errors.AllocationFailure, errors.CodeOf(err))
}

func TestBuildParallel_MatchesSerial(t *testing.T) {
	buf := randomRegion(42, resonance.Pages)
	serial, err := Build(buf, resonance.Pages)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 5, 8, 12, 64} {
		v, err := BuildParallel(context.Background(), buf, resonance.Pages, workers)
		require.NoError(t, err)
		assert.Equal(t, serial.Offsets, v.Offsets, "workers=%d", workers)
		assert.Equal(t, serial.Indices, v.Indices, "workers=%d", workers)
		assert.Equal(t, serial.Fingerprint(), v.Fingerprint(), "workers=%d", workers)
	}
}

func TestBuilder_SmallRegionStaysSerial(t *testing.T) {
	b := NewBuilder(8, 4, zaptest.NewLogger(t).Sugar())
	assert.Equal(t, 1, b.workersFor(7))
	assert.Equal(t, 2, b.workersFor(8))
	assert.Equal(t, 8, b.workersFor(resonance.Pages))

	b.Workers = 0
	assert.Equal(t, 1, b.workersFor(resonance.Pages))
}

func TestSplit(t *testing.T) {
	spans := split(10, 3)
	assert.Equal(t, []span{{0, 4}, {4, 7}, {7, 10}}, spans)
}

func TestBuildParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildParallel(ctx, randomRegion(1, resonance.Pages), resonance.Pages, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestView_Release(t *testing.T) {
	v, err := Build(randomRegion(2, 1), 1)
	require.NoError(t, err)

	v.Release()
	v.Release()
	assert.Zero(t, v.Len())
	assert.Nil(t, v.Class(0))

	var nilView *View
	nilView.Release()
	assert.Zero(t, nilView.Len())
	assert.Zero(t, nilView.Fingerprint())
}

func TestFingerprint_DiffersOnContent(t *testing.T) {
	a, err := Build(randomRegion(1, 2), 2)
	require.NoError(t, err)
	b, err := Build(randomRegion(2, 2), 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func BenchmarkBuild(b *testing.B) {
	buf := randomRegion(1, resonance.Pages)
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		if _, err := Build(buf, resonance.Pages); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuildParallel(b *testing.B) {
	buf := randomRegion(1, resonance.Pages)
	ctx := context.Background()
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		if _, err := BuildParallel(ctx, buf, resonance.Pages, 4); err != nil {
			b.Fatal(err)
		}
	}
}

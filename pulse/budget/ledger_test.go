package budget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/resonance/errors"
)

func TestNew_Bounds(t *testing.T) {
	for _, initial := range []int{0, 1, 48, Max} {
		l, err := New(initial)
		require.NoError(t, err)
		assert.Equal(t, initial, l.Value())
	}

	for _, initial := range []int{-1, Max + 1, 200} {
		l, err := New(initial)
		assert.Nil(t, l)
		assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err), "initial=%d", initial)
	}
}

// Given: a ledger at 90
// When: allocating 5 then 1
// Then: the first reaches the limit, the second fails and leaves 95
func TestAlloc_UpToLimit(t *testing.T) {
	l, err := New(90)
	require.NoError(t, err)

	require.NoError(t, l.Alloc(5))
	assert.Equal(t, Max, l.Value())

	err = l.Alloc(1)
	require.Error(t, err)
	assert.True(t, errors.IsBudgetFailure(err))
	assert.Equal(t, Max, l.Value(), "failed alloc must not change the counter")
}

func TestRelease_Underflow(t *testing.T) {
	l, err := New(3)
	require.NoError(t, err)

	err = l.Release(4)
	assert.Equal(t, errors.BudgetFailure, errors.CodeOf(err))
	assert.Equal(t, 3, l.Value())

	require.NoError(t, l.Release(3))
	assert.Equal(t, 0, l.Value())
}

func TestAmountOutOfRange(t *testing.T) {
	var l Ledger
	for _, amount := range []int{-1, Max + 1} {
		assert.True(t, errors.IsBudgetFailure(l.Alloc(amount)), "alloc %d", amount)
		assert.True(t, errors.IsBudgetFailure(l.Release(amount)), "release %d", amount)
	}
	assert.Zero(t, l.Value())
}

func TestZeroAmountAlwaysSucceeds(t *testing.T) {
	l, err := New(Max)
	require.NoError(t, err)
	assert.NoError(t, l.Alloc(0))

	var empty Ledger
	assert.NoError(t, empty.Release(0))
}

func TestStatus(t *testing.T) {
	l, err := New(30)
	require.NoError(t, err)
	assert.Equal(t, Status{Allocated: 30, Remaining: 65}, l.Status())
}

// Concurrent allocs of 1 from 200 goroutines: exactly 95 succeed.
func TestAlloc_Concurrent(t *testing.T) {
	var l Ledger
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, failed := 0, 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Alloc(1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, Max, ok)
	assert.Equal(t, 200-Max, failed)
	assert.Equal(t, Max, l.Value())
}

// Mixed concurrent traffic never leaves [0, Max] and balances out.
func TestAllocRelease_ConcurrentBalanced(t *testing.T) {
	l, err := New(40)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			amount := n%7 + 1
			for j := 0; j < 500; j++ {
				if l.Alloc(amount) == nil {
					v := l.Value()
					assert.True(t, v >= 0 && v <= Max)
					assert.NoError(t, l.Release(amount))
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 40, l.Value())
}

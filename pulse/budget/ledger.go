// Package budget provides the bounded resource ledger owned by each domain.
//
// A Ledger holds a counter in [0, Max]. Alloc and Release are single
// compare-and-swap updates: they either move the counter and succeed, or fail
// with ErrBudgetFailure and leave it untouched. No sequence of calls can
// observe a value outside the range, and there is no wraparound.
package budget

import (
	"sync/atomic"

	"github.com/teranos/resonance/errors"
)

// Max is the largest value a ledger may hold.
const Max = 95

// Ledger is an atomic bounded counter. The zero value is an empty ledger.
type Ledger struct {
	current atomic.Uint32
}

// Status is a point-in-time view of a ledger.
type Status struct {
	Allocated int
	Remaining int
}

// New creates a ledger starting at initial, which must lie in [0, Max].
func New(initial int) (*Ledger, error) {
	if initial < 0 || initial > Max {
		return nil, errors.NewInvalidArgumentError("budget class %d outside [0,%d]", initial, Max)
	}
	l := &Ledger{}
	l.current.Store(uint32(initial))
	return l, nil
}

// Alloc adds amount to the ledger. It fails with ErrBudgetFailure when
// amount is outside [0, Max] or the result would exceed Max.
func (l *Ledger) Alloc(amount int) error {
	if amount < 0 || amount > Max {
		return errors.WithDetailf(errors.ErrBudgetFailure, "alloc amount %d outside [0,%d]", amount, Max)
	}
	for {
		cur := l.current.Load()
		next := cur + uint32(amount)
		if next > Max {
			return errors.WithDetailf(errors.ErrBudgetFailure, "alloc would exceed budget: current=%d amount=%d limit=%d", cur, amount, Max)
		}
		if l.current.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// Release subtracts amount from the ledger. It fails with ErrBudgetFailure
// when amount is outside [0, Max] or exceeds the current value.
func (l *Ledger) Release(amount int) error {
	if amount < 0 || amount > Max {
		return errors.WithDetailf(errors.ErrBudgetFailure, "release amount %d outside [0,%d]", amount, Max)
	}
	for {
		cur := l.current.Load()
		if uint32(amount) > cur {
			return errors.WithDetailf(errors.ErrBudgetFailure, "release exceeds allocation: current=%d amount=%d", cur, amount)
		}
		if l.current.CompareAndSwap(cur, cur-uint32(amount)) {
			return nil
		}
	}
}

// Value returns the current counter.
func (l *Ledger) Value() int {
	return int(l.current.Load())
}

// Status returns the allocated and remaining units.
func (l *Ledger) Status() Status {
	v := l.Value()
	return Status{Allocated: v, Remaining: Max - v}
}

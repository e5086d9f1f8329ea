// Package schedule maps resonance classes onto aligned time slots.
//
// Slot t is the window of class r when (t + r) mod 96 == 0, so every class
// owns exactly one slot in each run of 96 and ClassAt(t) names it. NextWindow
// is pure and total; the Ticker turns wall-clock time into slots and emits the
// windows of the classes it watches.
package schedule

import (
	"math"

	"github.com/teranos/resonance/resonance"
)

// Period is the number of slots after which the window pattern repeats.
const Period = resonance.Classes

// MaxNow is the largest now for which every class has a window that fits
// in a uint64. Above it NextWindow may wrap; use NextWindowChecked there.
const MaxNow = math.MaxUint64 - (Period - 1)

// NextWindow returns the smallest slot t >= now with (t + r) mod 96 == 0.
// Any r is accepted and acts as r mod 96. For now <= MaxNow the result lies
// in [now, now+95]; above MaxNow it may wrap past zero.
func NextWindow(now uint64, r resonance.Class) uint64 {
	phase := (now%Period + uint64(r)%Period) % Period
	return now + (Period-phase)%Period
}

// NextWindowChecked is NextWindow reporting false instead of wrapping when
// the window lies beyond the uint64 range.
func NextWindowChecked(now uint64, r resonance.Class) (uint64, bool) {
	t := NextWindow(now, r)
	if t < now {
		return 0, false
	}
	return t, true
}

// Windows returns up to k window slots of class r, starting with
// NextWindow(now, r) and stepping by Period. The list ends early rather than
// wrap past the uint64 range.
func Windows(now uint64, r resonance.Class, k int) []uint64 {
	if k <= 0 {
		return nil
	}
	first, ok := NextWindowChecked(now, r)
	if !ok {
		return nil
	}
	out := make([]uint64, 1, k)
	out[0] = first
	for i := 1; i < k; i++ {
		prev := out[i-1]
		if prev > math.MaxUint64-Period {
			break
		}
		out = append(out, prev+Period)
	}
	return out
}

// ClassAt returns the class whose window opens at slot t.
func ClassAt(t uint64) resonance.Class {
	return resonance.Class((Period - t%Period) % Period)
}

// Wait returns the number of slots from now until the window of r opens.
func Wait(now uint64, r resonance.Class) uint64 {
	return NextWindow(now, r) - now
}

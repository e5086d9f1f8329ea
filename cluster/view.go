package cluster

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/teranos/resonance/resonance"
)

// View is a compressed sparse row partition of region coordinates by
// resonance class. Indices[Offsets[r]:Offsets[r+1]] holds, in strictly
// ascending order, every coordinate whose byte classifies to r.
//
// Field order is frozen; new fields are only appended.
type View struct {
	Offsets []uint32 // len resonance.Classes+1, Offsets[0] == 0, Offsets[96] == N
	Indices []uint32 // len N
	N       uint32
}

// Class returns the ascending coordinates of class r, or nil when r is out
// of range or the view is released.
func (v *View) Class(r int) []uint32 {
	if v == nil || r < 0 || r >= resonance.Classes || len(v.Offsets) != resonance.Classes+1 {
		return nil
	}
	return v.Indices[v.Offsets[r]:v.Offsets[r+1]]
}

// Count returns the number of coordinates in class r.
func (v *View) Count(r int) int {
	return len(v.Class(r))
}

// Len returns the total coordinate count.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return int(v.N)
}

// Histogram returns the per-class counts encoded by Offsets.
func (v *View) Histogram() [resonance.Classes]uint64 {
	var h [resonance.Classes]uint64
	for r := range h {
		h[r] = uint64(v.Count(r))
	}
	return h
}

// Release drops the view's arrays. It is safe on a nil or already released view.
func (v *View) Release() {
	if v == nil {
		return
	}
	v.Offsets = nil
	v.Indices = nil
	v.N = 0
}

// Fingerprint hashes Offsets and Indices with xxhash. Two builds over the
// same bytes produce the same fingerprint whatever the worker count.
func (v *View) Fingerprint() uint64 {
	if v == nil {
		return 0
	}
	d := xxhash.New()
	var word [4]byte
	for _, o := range v.Offsets {
		binary.LittleEndian.PutUint32(word[:], o)
		d.Write(word[:])
	}
	for _, i := range v.Indices {
		binary.LittleEndian.PutUint32(word[:], i)
		d.Write(word[:])
	}
	return d.Sum64()
}

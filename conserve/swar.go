package conserve

import "encoding/binary"

// SWAR (SIMD within a register) backends. Words are loaded with
// encoding/binary so unaligned input needs no special casing; the tail
// shorter than one step falls back to the scalar loop.

const (
	lowBytes = 0x00FF00FF00FF00FF
	lanes16  = 0x0001000100010001
	splat    = 0x0101010101010101
)

// pairLanes folds the 8 bytes of w into four 16-bit lanes, each at most 510.
func pairLanes(w uint64) uint64 {
	return (w & lowBytes) + ((w >> 8) & lowBytes)
}

// hsum16 adds the four 16-bit lanes of x. Lanes must total below 65536.
func hsum16(x uint64) uint64 {
	return (x * lanes16) >> 48
}

// swar64 processes one 64-bit word per step.
type swar64 struct{}

func (swar64) Name() string { return BackendSWAR64 }
func (swar64) Width() int   { return 8 }

func (swar64) Sum(p []byte) uint64 {
	var s uint64
	i := 0
	for ; i+8 <= len(p); i += 8 {
		s += hsum16(pairLanes(binary.LittleEndian.Uint64(p[i:])))
	}
	return s + scalar{}.Sum(p[i:])
}

func (swar64) Fill(dst []byte, v byte) {
	w := uint64(v) * splat
	i := 0
	for ; i+8 <= len(dst); i += 8 {
		binary.LittleEndian.PutUint64(dst[i:], w)
	}
	scalar{}.Fill(dst[i:], v)
}

func (swar64) Delta(a, b []byte) uint64 {
	var d uint64
	i := 0
	for ; i+8 <= len(a); i += 8 {
		if binary.LittleEndian.Uint64(a[i:]) == binary.LittleEndian.Uint64(b[i:]) {
			continue
		}
		d += scalar{}.Delta(a[i:i+8], b[i:i+8])
	}
	return d + scalar{}.Delta(a[i:], b[i:])
}

// swar256 processes four words (32 bytes) per step, deferring the horizontal
// add until all four words are folded into shared lanes.
type swar256 struct{}

func (swar256) Name() string { return BackendSWAR256 }
func (swar256) Width() int   { return 32 }

func (swar256) Sum(p []byte) uint64 {
	var s uint64
	i := 0
	for ; i+32 <= len(p); i += 32 {
		// four words of at most 510 per lane stay below 2^16 per lane
		acc := pairLanes(binary.LittleEndian.Uint64(p[i:])) +
			pairLanes(binary.LittleEndian.Uint64(p[i+8:])) +
			pairLanes(binary.LittleEndian.Uint64(p[i+16:])) +
			pairLanes(binary.LittleEndian.Uint64(p[i+24:]))
		s += hsum16(acc)
	}
	return s + swar64{}.Sum(p[i:])
}

func (swar256) Fill(dst []byte, v byte) {
	w := uint64(v) * splat
	i := 0
	for ; i+32 <= len(dst); i += 32 {
		binary.LittleEndian.PutUint64(dst[i:], w)
		binary.LittleEndian.PutUint64(dst[i+8:], w)
		binary.LittleEndian.PutUint64(dst[i+16:], w)
		binary.LittleEndian.PutUint64(dst[i+24:], w)
	}
	swar64{}.Fill(dst[i:], v)
}

func (swar256) Delta(a, b []byte) uint64 {
	var d uint64
	i := 0
	for ; i+32 <= len(a); i += 32 {
		x := (binary.LittleEndian.Uint64(a[i:]) ^ binary.LittleEndian.Uint64(b[i:])) |
			(binary.LittleEndian.Uint64(a[i+8:]) ^ binary.LittleEndian.Uint64(b[i+8:])) |
			(binary.LittleEndian.Uint64(a[i+16:]) ^ binary.LittleEndian.Uint64(b[i+16:])) |
			(binary.LittleEndian.Uint64(a[i+24:]) ^ binary.LittleEndian.Uint64(b[i+24:]))
		if x == 0 {
			continue
		}
		d += swar64{}.Delta(a[i:i+32], b[i:i+32])
	}
	return d + swar64{}.Delta(a[i:], b[i:])
}

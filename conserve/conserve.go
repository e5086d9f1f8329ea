// Package conserve provides copy, fill and compare primitives over byte
// buffers that compute or enforce the modulo-96 conservation invariant.
//
// Every primitive dispatches to the active Backend. All backends produce
// byte-identical results; the scalar backend is the reference the others
// are tested against. The active backend is chosen at startup from CPU
// capabilities (see Detect) and can be pinned with Use or the purego build tag.
//
// None of the functions take ownership of the buffers passed to them and
// none impose alignment requirements.
package conserve

import (
	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/resonance"
)

// Modulus is the conservation modulus.
const Modulus = resonance.Classes

// Sum returns the plain byte sum of p.
func Sum(p []byte) uint64 {
	return Active().Sum(p)
}

// Residue returns the byte sum of p reduced modulo 96.
func Residue(p []byte) resonance.Class {
	return resonance.Class(Active().Sum(p) % Modulus)
}

// Holds reports whether p satisfies the conservation predicate: sum(p) mod 96 == 0.
// An empty buffer conserves trivially.
func Holds(p []byte) bool {
	return Residue(p) == 0
}

// Copy copies src into dst like the built-in copy and returns the number of
// bytes copied together with the residue of the copied bytes. Overlapping
// buffers are handled.
func Copy(dst, src []byte) (int, resonance.Class) {
	n := copy(dst, src)
	return n, Residue(dst[:n])
}

// FillValue returns the value Fill would write for a region of length n:
// the largest v' <= value with (n * v') mod 96 == 0.
func FillValue(n int, value byte) byte {
	if n <= 0 {
		return value
	}
	step := byte(Modulus / gcd(n%Modulus, Modulus))
	return value - value%step
}

// Fill writes a conserving value to every byte of dst and returns it.
// The requested value is lowered to the nearest value v' with
// (len(dst) * v') mod 96 == 0, so the filled region always conserves.
func Fill(dst []byte, value byte) byte {
	v := FillValue(len(dst), value)
	Active().Fill(dst, v)
	return v
}

// FillExact writes value to every byte of dst only when the result conserves.
// Otherwise dst is left untouched and a conservation violation is returned.
func FillExact(dst []byte, value byte) error {
	if (uint64(len(dst))*uint64(value))%Modulus != 0 {
		return errors.WithDetailf(errors.ErrConservationViolation,
			"fill of %d bytes with %d leaves residue %d", len(dst), value, (uint64(len(dst))*uint64(value))%Modulus)
	}
	Active().Fill(dst, value)
	return nil
}

// Delta returns the sum of absolute per-byte differences between before and
// after. When the lengths differ the missing bytes of the shorter buffer count
// as zero, so Delta(a, b) == Delta(b, a) for every pair.
func Delta(before, after []byte) uint64 {
	n := len(before)
	if len(after) < n {
		n = len(after)
	}
	b := Active()
	d := b.Delta(before[:n], after[:n])
	if len(before) > n {
		d += b.Sum(before[n:])
	}
	if len(after) > n {
		d += b.Sum(after[n:])
	}
	return d
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Package witness generates and verifies immutable content digests over
// byte buffers.
//
// A Witness is a multihash (sha2-256 by default) captured at generation time.
// It has no mutating methods, so a *Witness may be shared across goroutines
// without synchronisation. Its text form is a CIDv1 with the raw codec, the
// same form used to persist witnesses in the Store.
package witness

import (
	"bytes"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/teranos/resonance/errors"
)

// DefaultCode is the multihash function used by Generate.
const DefaultCode = multihash.SHA2_256

// supported lists the hash functions a witness may be generated with.
var supported = map[uint64]string{
	multihash.SHA2_256: "sha2-256",
	multihash.SHA2_512: "sha2-512",
}

// Witness is an immutable digest over a byte sequence.
type Witness struct {
	mh     multihash.Multihash
	length int
}

// Generate computes a witness over exactly the bytes of buf.
// A nil or empty buffer is rejected with an invalid-argument error.
func Generate(buf []byte) (*Witness, error) {
	return GenerateWithCode(buf, DefaultCode)
}

// GenerateWithCode computes a witness with an explicit multihash function.
func GenerateWithCode(buf []byte, code uint64) (*Witness, error) {
	if len(buf) == 0 {
		return nil, errors.NewInvalidArgumentError("witness over empty buffer")
	}
	if _, ok := supported[code]; !ok {
		return nil, errors.NewInvalidArgumentError("unsupported witness hash 0x%x", code)
	}
	mh, err := multihash.Sum(buf, code, -1)
	if err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(errors.ErrAllocationFailure, err), "multihash sum")
	}
	return &Witness{mh: mh, length: len(buf)}, nil
}

// Verify recomputes the digest over buf and reports whether it matches w.
// A nil witness or an empty buffer never verifies.
func Verify(w *Witness, buf []byte) bool {
	if w == nil || len(buf) == 0 || len(buf) != w.length {
		return false
	}
	dec, err := multihash.Decode(w.mh)
	if err != nil {
		return false
	}
	fresh, err := multihash.Sum(buf, dec.Code, dec.Length)
	if err != nil {
		return false
	}
	return bytes.Equal(fresh, w.mh)
}

// Check is Verify reporting a WitnessInvalid error instead of false.
func Check(w *Witness, buf []byte) error {
	if w == nil {
		return errors.Wrap(errors.ErrWitnessInvalid, "no witness")
	}
	if !Verify(w, buf) {
		return errors.WithDetailf(errors.ErrWitnessInvalid, "digest mismatch over %d bytes (witness covers %d)", len(buf), w.length)
	}
	return nil
}

// Digest returns a copy of the raw digest bytes (without the multihash prefix).
func (w *Witness) Digest() []byte {
	if w == nil {
		return nil
	}
	dec, err := multihash.Decode(w.mh)
	if err != nil {
		return nil
	}
	return append([]byte(nil), dec.Digest...)
}

// Multihash returns a copy of the full multihash.
func (w *Witness) Multihash() multihash.Multihash {
	if w == nil {
		return nil
	}
	return append(multihash.Multihash(nil), w.mh...)
}

// Len returns the length of the buffer the witness was generated over.
func (w *Witness) Len() int {
	if w == nil {
		return 0
	}
	return w.length
}

// HashName returns the name of the hash function, e.g. "sha2-256".
func (w *Witness) HashName() string {
	if w == nil {
		return ""
	}
	dec, err := multihash.Decode(w.mh)
	if err != nil {
		return ""
	}
	return supported[dec.Code]
}

// Equal reports whether two witnesses carry the same digest over the same length.
func (w *Witness) Equal(other *Witness) bool {
	if w == nil || other == nil {
		return w == other
	}
	return w.length == other.length && bytes.Equal(w.mh, other.mh)
}

// CID returns the witness as a CIDv1 with the raw codec.
func (w *Witness) CID() cid.Cid {
	if w == nil {
		return cid.Undef
	}
	return cid.NewCidV1(cid.Raw, w.mh)
}

// String returns the CIDv1 text form.
func (w *Witness) String() string {
	if w == nil {
		return ""
	}
	return w.CID().String()
}

// Parse rebuilds a witness from its CID text form and the covered length.
func Parse(s string, length int) (*Witness, error) {
	if length <= 0 {
		return nil, errors.NewInvalidArgumentError("witness length must be positive, got %d", length)
	}
	c, err := cid.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(errors.WithSecondaryError(errors.ErrWitnessInvalid, err), "decode %q", s)
	}
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return nil, errors.Wrap(errors.WithSecondaryError(errors.ErrWitnessInvalid, err), "decode multihash")
	}
	if _, ok := supported[dec.Code]; !ok {
		return nil, errors.WithDetailf(errors.ErrWitnessInvalid, "unsupported hash 0x%x", dec.Code)
	}
	return &Witness{mh: c.Hash(), length: length}, nil
}

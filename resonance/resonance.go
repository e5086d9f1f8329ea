// Package resonance classifies bytes into the 96 resonance classes and
// aggregates per-page histograms.
//
// A byte's class is its value reduced modulo 96; position never matters.
// Everything here is pure and safe for concurrent use.
package resonance

// Layout of the standard region.
const (
	Classes    = 96               // number of resonance classes, and the conservation modulus
	PageSize   = 256              // bytes per page
	Pages      = 48               // pages in a standard region
	RegionSize = Pages * PageSize // 12288 bytes
)

// Class is a resonance class in [0, 95].
type Class = uint8

// Page is one fixed 256-byte page of a region.
type Page = [PageSize]byte

// Histogram counts bytes per class.
type Histogram [Classes]uint32

// classTable is the byte→class lookup used by the page loops.
var classTable = func() (t [256]Class) {
	for b := 0; b < 256; b++ {
		t[b] = Class(b % Classes)
	}
	return t
}()

// Classify returns the resonance class of b.
func Classify(b byte) Class {
	return classTable[b]
}

// ClassifyPage writes the class of every byte of in to the same position of out.
func ClassifyPage(in *Page, out *[PageSize]Class) {
	for i := range in {
		out[i] = classTable[in[i]]
	}
}

// HistogramPage counts the bytes of in per class. The bins always sum to 256.
func HistogramPage(in *Page) Histogram {
	var h Histogram
	for _, b := range in {
		h[classTable[b]]++
	}
	return h
}

// HistogramRegion counts every byte of buf per class, whole pages and any tail alike.
func HistogramRegion(buf []byte) [Classes]uint64 {
	var h [Classes]uint64
	for _, b := range buf {
		h[classTable[b]]++
	}
	return h
}

// Sum returns the total count in h.
func (h *Histogram) Sum() uint32 {
	var n uint32
	for _, c := range h {
		n += c
	}
	return n
}

// Add accumulates other into h.
func (h *Histogram) Add(other *Histogram) {
	for i := range h {
		h[i] += other[i]
	}
}

// PageAt returns page i of buf as a fixed-size page, or nil when buf holds
// fewer than i+1 whole pages.
func PageAt(buf []byte, i int) *Page {
	if i < 0 {
		return nil
	}
	start := i * PageSize
	if start+PageSize > len(buf) {
		return nil
	}
	return (*Page)(buf[start : start+PageSize])
}

// Coordinate returns the Φ-linearized coordinate of (page, offset).
func Coordinate(page, offset int) uint32 {
	return uint32(page*PageSize + offset)
}

// SplitCoordinate is the inverse of Coordinate.
func SplitCoordinate(coord uint32) (page, offset int) {
	return int(coord / PageSize), int(coord % PageSize)
}

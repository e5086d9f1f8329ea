package conserve

// scalar is the byte-at-a-time reference implementation.
type scalar struct{}

func (scalar) Name() string { return BackendScalar }
func (scalar) Width() int   { return 1 }

func (scalar) Sum(p []byte) uint64 {
	var s uint64
	for _, b := range p {
		s += uint64(b)
	}
	return s
}

func (scalar) Fill(dst []byte, v byte) {
	for i := range dst {
		dst[i] = v
	}
}

func (scalar) Delta(a, b []byte) uint64 {
	var d uint64
	for i := range a {
		d += absDiff(a[i], b[i])
	}
	return d
}

func absDiff(x, y byte) uint64 {
	if x > y {
		return uint64(x - y)
	}
	return uint64(y - x)
}

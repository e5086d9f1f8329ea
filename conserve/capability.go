package conserve

import (
	"math/bits"

	"github.com/klauspost/cpuid/v2"
)

// Capabilities summarises the CPU features backend selection looks at.
type Capabilities struct {
	Vendor   string `json:"vendor"`
	Brand    string `json:"brand"`
	WordBits int    `json:"word_bits"`
	SSE2     bool   `json:"sse2"`
	AVX2     bool   `json:"avx2"`
	AVX512   bool   `json:"avx512"`
	ASIMD    bool   `json:"asimd"`
}

// DetectCapabilities queries the running CPU.
func DetectCapabilities() Capabilities {
	return Capabilities{
		Vendor:   cpuid.CPU.VendorString,
		Brand:    cpuid.CPU.BrandName,
		WordBits: bits.UintSize,
		SSE2:     cpuid.CPU.Supports(cpuid.SSE2),
		AVX2:     cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:   cpuid.CPU.Supports(cpuid.AVX512F),
		ASIMD:    cpuid.CPU.Supports(cpuid.ASIMD),
	}
}

// Select maps capabilities to a backend name.
// Wide vector units favour the 4-word unrolled loop; any 64-bit word machine
// gets the single-word loop; everything else runs the scalar reference.
func Select(c Capabilities) string {
	switch {
	case c.WordBits < 64:
		return BackendScalar
	case c.AVX2 || c.AVX512 || c.ASIMD:
		return BackendSWAR256
	default:
		return BackendSWAR64
	}
}

// Detect returns the backend name chosen for the running CPU.
func Detect() string {
	return Select(DetectCapabilities())
}

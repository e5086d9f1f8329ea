package conserve

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/teranos/resonance/errors"
	"github.com/teranos/resonance/logger"
)

// Backend is one implementation of the streaming primitives.
// Implementations must tolerate unaligned input of any length.
type Backend interface {
	// Name identifies the backend in config and logs.
	Name() string
	// Width is the number of bytes processed per inner-loop step.
	Width() int
	// Sum returns the byte sum of p.
	Sum(p []byte) uint64
	// Fill sets every byte of dst to v.
	Fill(dst []byte, v byte)
	// Delta returns the sum of absolute differences of a and b, which have equal length.
	Delta(a, b []byte) uint64
}

// Backend names accepted by Use and the primitives.backend config key.
const (
	BackendAuto    = "auto"
	BackendScalar  = "scalar"
	BackendSWAR64  = "swar64"
	BackendSWAR256 = "swar256"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Backend{}
	active     atomic.Pointer[Backend]
)

func register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[b.Name()] = b
}

func init() {
	register(scalar{})
	register(swar64{})
	register(swar256{})

	b := lookup(defaultBackend())
	active.Store(&b)
}

func lookup(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[name]
}

// Active returns the backend the primitives currently dispatch to.
func Active() Backend {
	return *active.Load()
}

// Backends returns every registered backend, ordered by width.
func Backends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Backend, 0, len(registry))
	for _, b := range registry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Width() < out[j].Width() })
	return out
}

// Known reports whether name is a registered backend.
func Known(name string) bool {
	return lookup(name) != nil
}

// BackendNames returns the registered backend names, comma separated, ordered by width.
func BackendNames() string {
	bs := Backends()
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.Name()
	}
	return strings.Join(names, ", ")
}

// Reference returns the scalar reference backend.
func Reference() Backend {
	return scalar{}
}

// Use pins the active backend by name. "auto" (or "") re-runs capability detection.
func Use(name string) error {
	if name == "" || name == BackendAuto {
		name = defaultBackend()
	}
	b := lookup(name)
	if b == nil {
		return errors.NewInvalidArgumentError("unknown conserve backend %q", name)
	}
	active.Store(&b)
	logger.AddConserveSymbol(logger.Logger).Debugw("Conserve backend selected",
		logger.FieldBackend, b.Name(),
		"width", b.Width())
	return nil
}

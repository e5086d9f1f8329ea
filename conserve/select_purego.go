//go:build purego

package conserve

// defaultBackend pins the scalar reference when built with -tags purego.
func defaultBackend() string {
	return BackendScalar
}

//go:build !purego

package conserve

// defaultBackend picks the backend from CPU capabilities.
func defaultBackend() string {
	return Detect()
}

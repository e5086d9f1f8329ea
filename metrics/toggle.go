// Package metrics exposes prometheus instrumentation for the resonance core.
//
// Recording is off until Enable(true) is called, so library users pay a
// single atomic load per hook. Building with the nometrics tag replaces every
// hook with an empty function and drops the prometheus dependency from the
// hot path entirely.
package metrics

import "sync/atomic"

const namespace = "resonance"

var enabled atomic.Bool

// Enable turns recording on or off at runtime.
func Enable(on bool) {
	enabled.Store(on)
}

// Enabled reports whether hooks currently record.
func Enabled() bool {
	return enabled.Load()
}

func status(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

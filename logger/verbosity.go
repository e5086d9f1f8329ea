package logger

import (
	"sync/atomic"

	"go.uber.org/zap/zapcore"
)

// CLI -v counts.
const (
	VerbosityUser  = 0 // results and errors only
	VerbosityInfo  = 1 // -v: lifecycle transitions, backend selection
	VerbosityDebug = 2 // -vv: build timing, config details
	VerbosityTrace = 3 // -vvv: migrations, ticker slots
	VerbosityAll   = 4 // -vvvv: per-class bucket dumps
)

var levelNames = [...]string{
	VerbosityUser:  "User",
	VerbosityInfo:  "Info (-v)",
	VerbosityDebug: "Debug (-vv)",
	VerbosityTrace: "Trace (-vvv)",
	VerbosityAll:   "All (-vvvv)",
}

// verbosity is the count the global logger was last initialised with.
var verbosity atomic.Int32

// Verbosity returns the -v count of the global logger.
func Verbosity() int {
	return int(verbosity.Load())
}

// VerbosityToLevel maps a -v count to a zap level. zap has nothing finer
// than debug, so -vvv and above differ only through ShouldLogTrace and
// ShouldLogAll.
func VerbosityToLevel(v int) zapcore.Level {
	switch {
	case v <= VerbosityUser:
		return zapcore.WarnLevel
	case v == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldLogTrace reports whether v is -vvv or more.
func ShouldLogTrace(v int) bool {
	return v >= VerbosityTrace
}

// ShouldLogAll reports whether v is -vvvv or more.
func ShouldLogAll(v int) bool {
	return v >= VerbosityAll
}

// LevelName returns a display name for a -v count.
func LevelName(v int) string {
	switch {
	case v < 0:
		return "Unknown"
	case v > VerbosityAll:
		return "All (-vvvv+)"
	}
	return levelNames[v]
}

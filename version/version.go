// Package version reports build metadata and the interface version of the
// status codes.
package version

import (
	"fmt"
	"runtime"

	"github.com/teranos/resonance/conserve"
)

// Interface is the integer version of the status codes and exported layouts.
// Version 1 is the first published layout and already includes
// InvalidArgument (6). Codes or frozen struct fields appended after it raise
// the version; existing values are never renumbered.
const Interface = 1

// Set at build time with -ldflags "-X github.com/teranos/resonance/version.Version=...".
var (
	Version    = "dev"
	CommitHash = "dev"
	BuildTime  = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version    string `json:"version"`
	Interface  int    `json:"interface"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Backend    string `json:"backend"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:    Version,
		Interface:  Interface,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Backend:    conserve.Active().Name(),
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Compatible reports whether a caller built against interface version v can
// read this binary's codes. Codes are only ever appended.
func Compatible(v int) bool {
	return v >= 1 && v <= Interface
}

func (i Info) String() string {
	return fmt.Sprintf("resonance %s (interface %d, commit %s, built %s)", i.Version, i.Interface, i.CommitHash, i.BuildTime)
}

// Short returns the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) > 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

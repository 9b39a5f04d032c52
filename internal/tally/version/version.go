// Package version reports the build identity of the tally binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Full is the version with commit and build date.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Short(), Commit, Date)
}

// Short is the bare version. Binaries built with go install report their
// module version when no version was stamped.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

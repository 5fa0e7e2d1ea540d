// Package version provides build-time version information.
package version

import "fmt"

// Set via -ldflags at build time, e.g.
//
//	-X github.com/GoCodeAlone/tasklist/internal/version.Version=v0.1.0
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String formats the version, commit and build date for display.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}

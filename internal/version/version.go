// Package version holds build metadata for the ordermgmt binary.
package version

// Overridden with -ldflags "-X github.com/ordermgmt/ordersvc/internal/version.release=...".
var (
	release   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Version is the release tag, "dev" for local builds.
func Version() string { return release }

// Info returns the release, commit and build date.
func Info() (string, string, string) { return release, commit, buildDate }

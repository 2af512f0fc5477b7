// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/stupside/cloak/internal/version.Version=...".
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Package build exposes version metadata stamped at link time.
package build

// Set via -ldflags "-X go.trai.ch/rig/internal/build.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

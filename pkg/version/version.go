// Package version provides version information for the application.
package version

import "runtime"

// Build information. Populated at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

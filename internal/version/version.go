package version

import "runtime"

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/haoyun/navtable/internal/version.Version=v1.2.0 ..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

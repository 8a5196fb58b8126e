// Package buildinfo holds the library version string, injected at build
// time the way src/internal/boltutil does for the teacher's driver.
package buildinfo

import "runtime"

// Version is injected at build time via -ldflags.
var Version = "dev"

// UserAgent returns the identifier a store reports to its configured
// tracer/logger, mirroring boltutil's "product/version (Go/x.y)" shape.
func UserAgent() string {
	return "gopherflux-signals/" + Version + " (Go/" + goVersion() + ")"
}

func goVersion() string {
	v := runtime.Version()
	if len(v) > 2 && v[:2] == "go" {
		return v[2:]
	}
	return v
}

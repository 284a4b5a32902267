// Package version holds the build identity of depflat.
package version

import "runtime"

// Overridden at build time:
// go build -ldflags "-X depflat/internal/version.Version=1.0.0 -X depflat/internal/version.Commit=abc123"
var (
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version report printed by `depflat version`.
func Full() string {
	return "depflat version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}

// Package version holds build details set with -ldflags at build time.
package version

import "fmt"

// Build and version details
var (
	GitCommit = ""
	BuildDate = ""
	Version   = "unknown"
)

// String formats a string with version details.
func String() string {
	return fmt.Sprintf("crabgen %s\ngit commit: %s\nbuild date: %s", Version, GitCommit, BuildDate)
}

// UserAgent identifies crabgen in HTTP requests.
func UserAgent() string {
	return "crabgen/" + Version
}

// LogFields returns build details as logger key/value arguments.
func LogFields() []interface{} {
	return []interface{}{
		"version", Version,
		"commit", GitCommit,
		"buildDate", BuildDate,
	}
}

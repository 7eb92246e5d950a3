// SPDX-License-Identifier: MIT
/*
Package build exposes build-time metadata injected via -ldflags, for
example:

	go build -ldflags "-X chromascope/internal/build.buildVersion=0.2.0"

Unset fields fall back to development defaults so plain `go run` works.
*/
package build

// Populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// Flags holds the resolved build information.
type Flags struct {
	Name    string // Application name
	Time    string // Build timestamp
	Commit  string // Git commit hash
	Version string // Semantic version
}

var buildFlags = &Flags{
	Name:    "chromascope",
	Time:    "unknown",
	Commit:  "unknown",
	Version: "dev",
}

// Initialize copies any injected build information over the development
// defaults. Call once at startup before GetBuildFlags.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Flags {
	return buildFlags
}

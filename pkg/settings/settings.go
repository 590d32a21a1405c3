// Package settings provides build metadata, runtime configuration, and
// context helpers used across the pagekit CLI and library packages.
package settings

import "time"

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "pagekit"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// FeedSettings holds the dataset-serving knobs for a single run: where the
// records come from and how the in-memory page source behaves.
type FeedSettings struct {
	Path     string        // dataset file; "-" reads stdin
	Limit    int           // page size
	Latency  time.Duration // simulated per-page latency
	FailRate float64       // simulated per-page failure probability (0..1)
	FailSeed int64         // seed for the failure generator
}

// Run holds configuration settings for a single execution of the application.
// It includes options for logging, the feed source, display behavior, and
// error handling behavior.
type Run struct {
	MinLogLevel int8
	Feed        FeedSettings
	Theme       string
	KeyMode     string
	Filter      string // CEL row filter expression
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams initializes and returns a pointer to a Run struct with default
// CLI parameters: logging at level 0, the stock page size, and exit-on-error
// behavior suitable for terminal use.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Feed: FeedSettings{
			Limit: 10,
		},
		IsQuiet:     false,
		NoColor:     false,
		ExitOnError: true,
	}
}

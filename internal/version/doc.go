// Package version exposes build metadata for the job-alert binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. Short and Full render the version for CLI output, UserAgent
// tags outgoing gRPC calls.
package version

// Package common holds helpers shared by several services.
//
// It provides the gRPC client of the alert host, with per-call timeouts.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

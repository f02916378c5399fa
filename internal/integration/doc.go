// Package integration holds end-to-end tests that run a real alert host on a
// loopback port and drive it through the gRPC client and the control CLI service.
package integration

// Package host runs the alert host daemon: it wires the device adapters, the
// feedback driver, the lifecycle machine and the router behind the gRPC
// AlertService, and tears everything down on shutdown.
package host

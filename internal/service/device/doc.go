// Package device contains the host capability adapters: OS command based
// sound and wake lock, log-only simulated backends, a console presentation
// host and a URL opening navigation host.
package device

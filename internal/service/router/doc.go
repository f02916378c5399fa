// Package router handles one inbound message end to end: it parses the
// payload, selects a presentation and hands the alert to the lifecycle
// machine, falling back to a generic notification for anything that is not a
// job alert. It also exposes the user triggers of the machine to transports.
package router

// Package control implements alert-ctl: it sends a single message or user
// trigger to a running alert host and prints the host's answer.
package control

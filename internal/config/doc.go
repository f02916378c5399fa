// Package config defines the settings shared by alert-host and alert-ctl and
// provides helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for every optional field, so a file holding only
// server_addr is a complete configuration.
package config

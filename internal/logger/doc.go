// Package logger wraps zap for the job-alert binaries:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and configuration (ParseLogLevel, Configure),
//   - leveled convenience functions (Infof, WarnKV, DebugKV, etc.).
//
// Components never hold a logger of their own: they take a context and
// extract the logger from it, so session and alert identifiers attached with
// WithKV follow every message written while handling that alert.
package logger

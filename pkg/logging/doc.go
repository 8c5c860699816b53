// Package logging provides subsystem-tagged structured logging for
// sessionsplice, built on the standard slog package.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging
//   - **Info**: General progress of a login or injection
//   - **Warn**: Degraded but recoverable situations, e.g. only one loopback stack bound
//   - **Error**: Failures
//
// Every entry carries a "subsystem" attribute and, for errors, an "error"
// attribute.
//
// # Usage
//
//	logging.Init(logging.Options{Level: logging.LevelInfo})
//
//	logging.Info("Capture", "Listening for OAuth callback on %s", redirectURI)
//	logging.Warn("Capture", "IPv4 loopback bind failed, listening on IPv6 only")
//	logging.Error("StateDB", err, "Failed to write %s", key)
//
// # Subsystems
//
//   - **Capture**: loopback listeners and the capture session
//   - **Provider**: code exchange and userinfo lookups
//   - **StateDB**: the target application's state database
//   - **Accounts**: the local account store
//   - **Config**: configuration loading
//
// # Audit Logging
//
// Operations that move credentials are recorded as audit events:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "state_injected",
//	    Outcome: "success",
//	    Account: email,
//	    Target:  dbPath,
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix regardless of
// the configured level. Token values are never logged; use TruncateSecret
// when a token needs to be identified in a log line.
package logging

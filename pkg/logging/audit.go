package logging

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent describes a security-relevant operation: a credential being
// captured, stored, or written into another application's state.
type AuditEvent struct {
	// Action is what happened, e.g. "credential_captured" or "state_injected".
	Action string

	// Outcome is "success" or "failure".
	Outcome string

	// Account is the account email the operation concerns, if known.
	Account string

	// Target is the file or database affected.
	Target string

	// Details carries extra non-secret context.
	Details string

	// Error is set on failure.
	Error string
}

// Audit logs an audit event at INFO level with an [AUDIT] prefix so it can be
// filtered by log aggregation. Audit events bypass the configured level.
func Audit(event AuditEvent) {
	l := logger()
	if l == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("action", event.Action),
		slog.String("outcome", event.Outcome),
	}
	if event.Account != "" {
		attrs = append(attrs, slog.String("account", event.Account))
	}
	if event.Target != "" {
		attrs = append(attrs, slog.String("target", event.Target))
	}
	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	// Handle directly: the handler's level would drop these when running at WARN or ERROR.
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "[AUDIT] "+event.Action, 0)
	record.AddAttrs(attrs...)
	_ = l.Handler().Handle(context.Background(), record)
}

// TruncateSecret returns a shortened form of a token that is safe to log:
// the first four characters followed by an ellipsis. Short values are fully
// masked.
func TruncateSecret(secret string) string {
	const visible = 4
	if secret == "" {
		return ""
	}
	if len(secret) <= visible*2 {
		return "****"
	}
	return secret[:visible] + "..."
}

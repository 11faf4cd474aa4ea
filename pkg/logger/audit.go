package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent is the slog half of an audit record.
type AuditEvent struct {
	Action     string
	ActorID    string
	TargetType string
	TargetID   string
	IPAddress  string
	Success    bool
	Reason     string
	Metadata   map[string]string
}

// AuditLogger writes audit records with a stable "audit" message so they can
// be filtered out of the general log stream.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAdminAction records a moderation or account decision taken by an admin.
func (al *AuditLogger) LogAdminAction(ctx context.Context, event AuditEvent) {
	al.log(ctx, "admin", event)
}

// LogAuthAttempt records a login, registration or MFA attempt.
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	al.log(ctx, "auth", event)
}

func (al *AuditLogger) log(ctx context.Context, auditType string, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("action", event.Action),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	optional := []struct{ key, val string }{
		{"actor_id", event.ActorID},
		{"target_type", event.TargetType},
		{"target_id", event.TargetID},
		{"ip_address", event.IPAddress},
		{"reason", event.Reason},
	}
	for _, o := range optional {
		if o.val != "" {
			attrs = append(attrs, slog.String(o.key, o.val))
		}
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String("meta_"+key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

package hriveauth

import (
	"context"
	"io"
	"time"

	"github.com/hrive/hriveauth/internal/audit"
)

// AuditKind names an audit event.
type AuditKind = audit.Kind

// Audit event kinds emitted by the Engine.
const (
	AuditLoginSuccess     = audit.KindLoginSuccess
	AuditLoginFailure     = audit.KindLoginFailure
	AuditLoginRateLimited = audit.KindLoginRateLimited
	AuditRefreshSuccess   = audit.KindRefreshSuccess
	AuditRefreshFailure   = audit.KindRefreshFailure
	AuditRefreshReuse     = audit.KindRefreshReuse
	AuditLogout           = audit.KindLogout
	AuditLogoutAll        = audit.KindLogoutAll
	AuditSeedUserCreated  = audit.KindSeedUserCreated
	AuditPortalDenied     = audit.KindPortalDenied
)

// AuditEvent is one audit record.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
// Sinks that also implement EmitBatch receive queued events together.
type AuditSink = audit.Sink

// NoOpSink drops every event.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes newline-delimited JSON events.
type JSONWriterSink = audit.JSONWriterSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// emitAudit stamps ev with the time and the request's client details.
func (e *Engine) emitAudit(ctx context.Context, ev AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	ev.At = time.Now().UTC()
	ev.IP = clientIPFromContext(ctx)
	ev.UserAgent = userAgentFromContext(ctx)
	e.audit.Emit(ctx, ev)
}

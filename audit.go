package fairauth

import (
	"context"

	internalaudit "github.com/agrofair/fairauth/internal/audit"
)

// Audit event types emitted by the engine.
const (
	// AuditAuthnSuccess is an exported constant or variable used by the authentication engine.
	AuditAuthnSuccess = "authn.success"
	// AuditAuthnFailure is an exported constant or variable used by the authentication engine.
	AuditAuthnFailure = "authn.failure"
	// AuditAuthnLocked is an exported constant or variable used by the authentication engine.
	AuditAuthnLocked = "authn.locked"
	// AuditAuthnUnavailable is an exported constant or variable used by the authentication engine.
	AuditAuthnUnavailable = "authn.unavailable"
	// AuditAccountUnlocked is an exported constant or variable used by the authentication engine.
	AuditAccountUnlocked = "account.unlocked"
	// AuditAccountCreated is an exported constant or variable used by the authentication engine.
	AuditAccountCreated = "account.created"
	// AuditVerifyFailure is an exported constant or variable used by the authentication engine.
	AuditVerifyFailure = "session.verify_failure"
	// AuditInvalidate is an exported constant or variable used by the authentication engine.
	AuditInvalidate = "session.invalidate"
)

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *internalaudit.Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	return internalaudit.NewDispatcher(sink, cfg.BufferSize, cfg.DropIfFull)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, accountID string, success bool, failure error) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}

	e.audit.Emit(ctx, event)
}

// AuditDropped reports how many audit events were dropped because the buffer
// was full. Always zero when auditing is disabled or DropIfFull is unset.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

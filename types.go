package fairauth

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/agrofair/fairauth/internal/audit"
	internalmetrics "github.com/agrofair/fairauth/internal/metrics"
)

// Role is the enumerated capability tag carried into issued tokens.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RoleAdmin is an exported constant or variable used by the authentication engine.
	RoleAdmin Role = "admin"
	// RoleCoordinator is an exported constant or variable used by the authentication engine.
	RoleCoordinator Role = "coordinator"
	// RoleProducer is an exported constant or variable used by the authentication engine.
	RoleProducer Role = "producer"
	// RoleUser is an exported constant or variable used by the authentication engine.
	RoleUser Role = "user"
)

// ParseRole validates a role string against the known set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleCoordinator, RoleProducer, RoleUser:
		return Role(s), nil
	}
	return "", ErrRoleInvalid
}

// Account is the credential record owned by the [CredentialStore]. It carries
// the comparable form of the secret and the lockout bookkeeping fields.
type Account struct {
	ID             string
	Identifier     string
	SecretHash     string
	Role           Role
	FailedAttempts int
	LastAttemptAt  time.Time // zero value means no failed attempt recorded
}

// CredentialStore is the interface callers implement (or take from store/) to
// back the engine with durable account state. RecordFailure and RecordSuccess
// must be single atomic read-modify-write operations at the storage layer:
// two concurrent failures against the same account must never lose an
// increment.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
	FindByID(ctx context.Context, accountID string) (Account, error)

	// RecordFailure atomically increments FailedAttempts and sets
	// LastAttemptAt to at, returning the updated account.
	RecordFailure(ctx context.Context, accountID string, at time.Time) (Account, error)

	// RecordSuccess atomically resets FailedAttempts to zero and clears
	// LastAttemptAt.
	RecordSuccess(ctx context.Context, accountID string) error

	// ResetFailures clears the counter without the success side effects.
	// Used when an expired lockout window is observed and for manual unlock.
	ResetFailures(ctx context.Context, accountID string) error

	// UpdateSecretHash replaces the stored secret hash. Used by the
	// upgrade-on-login path; failures there are logged, not fatal.
	UpdateSecretHash(ctx context.Context, accountID string, newHash string) error

	// MarkRevoked stamps a revoked-at time for the account; RevokedAt reads
	// it back (zero time when none). Only consulted when revocation is
	// enabled in config.
	MarkRevoked(ctx context.Context, accountID string, at time.Time, ttl time.Duration) error
	RevokedAt(ctx context.Context, accountID string) (time.Time, error)
}

// AuthResult is returned by [Engine.Authenticate] on success.
type AuthResult struct {
	Token     string
	AccountID string

	Identifier string
	Role       Role

	ExpiresAt time.Time
}

// SessionClaims is returned by [Engine.VerifySession] for a valid token.
type SessionClaims struct {
	AccountID  string
	Identifier string
	Role       Role
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine’s audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricAuthSuccess is an exported constant or variable used by the authentication engine.
	MetricAuthSuccess = MetricID(internalmetrics.MetricAuthSuccess)
	// MetricAuthFailure is an exported constant or variable used by the authentication engine.
	MetricAuthFailure = MetricID(internalmetrics.MetricAuthFailure)
	// MetricAuthLocked is an exported constant or variable used by the authentication engine.
	MetricAuthLocked = MetricID(internalmetrics.MetricAuthLocked)
	// MetricLockoutTripped is an exported constant or variable used by the authentication engine.
	MetricLockoutTripped = MetricID(internalmetrics.MetricLockoutTripped)
	// MetricLockoutExpired is an exported constant or variable used by the authentication engine.
	MetricLockoutExpired = MetricID(internalmetrics.MetricLockoutExpired)
	// MetricVerifySuccess is an exported constant or variable used by the authentication engine.
	MetricVerifySuccess = MetricID(internalmetrics.MetricVerifySuccess)
	// MetricVerifyExpired is an exported constant or variable used by the authentication engine.
	MetricVerifyExpired = MetricID(internalmetrics.MetricVerifyExpired)
	// MetricVerifyInvalid is an exported constant or variable used by the authentication engine.
	MetricVerifyInvalid = MetricID(internalmetrics.MetricVerifyInvalid)
	// MetricInvalidate is an exported constant or variable used by the authentication engine.
	MetricInvalidate = MetricID(internalmetrics.MetricInvalidate)
	// MetricStoreError is an exported constant or variable used by the authentication engine.
	MetricStoreError = MetricID(internalmetrics.MetricStoreError)
)

// Metrics holds atomic counters for engine operations.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}

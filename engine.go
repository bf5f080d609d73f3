package fairauth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/agrofair/fairauth/internal/audit"
	"github.com/agrofair/fairauth/lockout"
	"github.com/agrofair/fairauth/password"
	"github.com/agrofair/fairauth/token"
)

// Engine defines a public type used by fairauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	store        CredentialStore
	policy       lockout.Policy
	passwordHash *password.Hasher
	tokens       *token.Manager
	audit        *internalaudit.Dispatcher
	metrics      *Metrics

	// now is the engine clock. Tests replace it to drive lockout windows
	// and token expiry deterministically.
	now func() time.Time
}

// decoySecretHash is verified against when the identifier is unknown so the
// response time does not separate unknown identifiers from wrong secrets.
const decoySecretHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$vbkaiyLbRDErKJCE5OkaBZ2nWO1hYJxp0tcD8bVn3Ac"

// AccountCreator is the optional store capability behind
// [Engine.CreateAccount]. The bundled Redis store implements it.
type AccountCreator interface {
	CreateAccount(ctx context.Context, account Account) error
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The outcome order is fixed: account lookup, lockout evaluation, then secret
// verification. A locked account is refused before its secret is examined, so
// guessing against a locked account leaks nothing and does not extend the
// lock. An unknown identifier and a wrong secret both satisfy
// errors.Is(err, ErrInvalidCredentials) and are indistinguishable to callers
// that do not type-assert.
//
// When extended is set the issued token carries the long lifetime.
func (e *Engine) Authenticate(ctx context.Context, identifier, secret string, extended bool) (*AuthResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if identifier == "" || secret == "" {
		e.metricInc(MetricAuthFailure)
		return nil, ErrInvalidCredentials
	}

	account, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn the same hash cost as a real comparison.
			_, _ = e.passwordHash.Verify(secret, decoySecretHash)
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, AuditAuthnFailure, "", false, ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		e.metricInc(MetricStoreError)
		e.emitAudit(ctx, AuditAuthnUnavailable, "", false, err)
		return nil, err
	}

	now := e.now()

	decision := e.policy.Evaluate(account.FailedAttempts, account.LastAttemptAt, now)
	if decision.Locked {
		e.metricInc(MetricAuthLocked)
		lockErr := &LockoutError{Remaining: decision.Remaining}
		e.emitAudit(ctx, AuditAuthnLocked, account.ID, false, lockErr)
		return nil, lockErr
	}
	if decision.WindowExpired {
		// The lock aged out; clear the stale counter before this attempt
		// is judged so it starts a fresh window.
		if err := e.store.ResetFailures(ctx, account.ID); err != nil {
			e.metricInc(MetricStoreError)
			e.emitAudit(ctx, AuditAuthnUnavailable, account.ID, false, err)
			return nil, err
		}
		account.FailedAttempts = 0
		account.LastAttemptAt = time.Time{}
		e.metricInc(MetricLockoutExpired)
	}

	match, err := e.passwordHash.Verify(secret, account.SecretHash)
	if err != nil {
		// A hash we cannot parse is stored-data corruption, not a
		// judgement on the secret.
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		e.metricInc(MetricStoreError)
		e.emitAudit(ctx, AuditAuthnUnavailable, account.ID, false, wrapped)
		return nil, wrapped
	}

	if !match {
		return nil, e.recordFailedAttempt(ctx, account.ID, now)
	}

	if err := e.store.RecordSuccess(ctx, account.ID); err != nil {
		e.metricInc(MetricStoreError)
		e.emitAudit(ctx, AuditAuthnUnavailable, account.ID, false, err)
		return nil, err
	}

	e.maybeUpgradeHash(ctx, account, secret)

	signed, expiresAt, err := e.tokens.Issue(account.ID, account.Identifier, string(account.Role), extended, now)
	if err != nil {
		e.emitAudit(ctx, AuditAuthnUnavailable, account.ID, false, err)
		return nil, err
	}

	e.metricInc(MetricAuthSuccess)
	e.emitAudit(ctx, AuditAuthnSuccess, account.ID, true, nil)

	return &AuthResult{
		Token:      signed,
		AccountID:  account.ID,
		Identifier: account.Identifier,
		Role:       account.Role,
		ExpiresAt:  expiresAt,
	}, nil
}

// recordFailedAttempt books one failure atomically and reports the outcome:
// a LockoutError when this failure trips the lock, a CredentialError
// otherwise.
func (e *Engine) recordFailedAttempt(ctx context.Context, accountID string, now time.Time) error {
	updated, err := e.store.RecordFailure(ctx, accountID, now)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Account deleted between lookup and bookkeeping.
			e.metricInc(MetricAuthFailure)
			return ErrInvalidCredentials
		}
		e.metricInc(MetricStoreError)
		e.emitAudit(ctx, AuditAuthnUnavailable, accountID, false, err)
		return err
	}

	e.metricInc(MetricAuthFailure)

	decision := e.policy.Evaluate(updated.FailedAttempts, updated.LastAttemptAt, now)
	if decision.Locked {
		e.metricInc(MetricLockoutTripped)
		lockErr := &LockoutError{Remaining: decision.Remaining}
		e.emitAudit(ctx, AuditAuthnLocked, accountID, false, lockErr)
		return lockErr
	}

	credErr := &CredentialError{AttemptsRemaining: e.policy.AttemptsRemaining(updated.FailedAttempts)}
	e.emitAudit(ctx, AuditAuthnFailure, accountID, false, credErr)
	return credErr
}

// maybeUpgradeHash rehashes the secret under current cost parameters after a
// successful verification. Failures here never fail the login.
func (e *Engine) maybeUpgradeHash(ctx context.Context, account Account, secret string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}

	needs, err := e.passwordHash.NeedsUpgrade(account.SecretHash)
	if err != nil || !needs {
		return
	}

	newHash, err := e.passwordHash.Hash(secret)
	if err != nil {
		log.Printf("fairauth: hash upgrade for %s failed: %v", account.ID, err)
		return
	}
	if err := e.store.UpdateSecretHash(ctx, account.ID, newHash); err != nil {
		log.Printf("fairauth: hash upgrade for %s not stored: %v", account.ID, err)
	}
}

// VerifySession describes the verifysession operation and its observable behavior.
//
// VerifySession may return an error when input validation, dependency calls, or security checks fail.
// VerifySession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Verification judges the token alone. Lockout state is never consulted: a
// lock gates new logins, not sessions already issued. The store is only
// touched when revocation is enabled.
func (e *Engine) VerifySession(ctx context.Context, tokenStr string) (*SessionClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.metricInc(MetricVerifyExpired)
			e.emitAudit(ctx, AuditVerifyFailure, "", false, ErrTokenExpired)
			return nil, ErrTokenExpired
		}
		e.metricInc(MetricVerifyInvalid)
		e.emitAudit(ctx, AuditVerifyFailure, "", false, ErrTokenInvalid)
		return nil, ErrTokenInvalid
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		e.metricInc(MetricVerifyInvalid)
		e.emitAudit(ctx, AuditVerifyFailure, claims.Subject, false, ErrTokenInvalid)
		return nil, ErrTokenInvalid
	}

	if e.config.Revocation.Enabled {
		revokedAt, err := e.store.RevokedAt(ctx, claims.Subject)
		if err != nil {
			e.metricInc(MetricStoreError)
			return nil, err
		}
		if !revokedAt.IsZero() && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(revokedAt) {
			e.metricInc(MetricVerifyInvalid)
			e.emitAudit(ctx, AuditVerifyFailure, claims.Subject, false, ErrTokenRevoked)
			return nil, ErrTokenRevoked
		}
	}

	e.metricInc(MetricVerifySuccess)

	out := &SessionClaims{
		AccountID:  claims.Subject,
		Identifier: claims.Identifier,
		Role:       role,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}

// Invalidate describes the invalidate operation and its observable behavior.
//
// Invalidate may return an error when input validation, dependency calls, or security checks fail.
// Invalidate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// With revocation disabled (the baseline) tokens are stateless and this is a
// client-side hint: the call succeeds without touching the store and the
// caller discards its copy. With revocation enabled, a revoked-at mark is
// written for the account and VerifySession refuses every token issued at or
// before that instant. An already-expired token succeeds; there is nothing
// left to revoke.
func (e *Engine) Invalidate(ctx context.Context, tokenStr string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			e.metricInc(MetricInvalidate)
			return nil
		}
		return ErrTokenInvalid
	}

	e.metricInc(MetricInvalidate)
	e.emitAudit(ctx, AuditInvalidate, claims.Subject, true, nil)

	if !e.config.Revocation.Enabled {
		return nil
	}

	// The mark only needs to outlive the longest-lived token issued
	// before now.
	if err := e.store.MarkRevoked(ctx, claims.Subject, e.now(), e.config.Token.LongTTL); err != nil {
		e.metricInc(MetricStoreError)
		return err
	}

	return nil
}

// UnlockAccount describes the unlockaccount operation and its observable behavior.
//
// UnlockAccount may return an error when input validation, dependency calls, or security checks fail.
// UnlockAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// This is the operator override: it clears the failure counter so the next
// attempt is judged fresh, without waiting out the window.
func (e *Engine) UnlockAccount(ctx context.Context, identifier string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	account, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if err := e.store.ResetFailures(ctx, account.ID); err != nil {
		e.metricInc(MetricStoreError)
		return err
	}

	e.emitAudit(ctx, AuditAccountUnlocked, account.ID, true, nil)
	return nil
}

// CreateAccount describes the createaccount operation and its observable behavior.
//
// CreateAccount may return an error when input validation, dependency calls, or security checks fail.
// CreateAccount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The configured store must implement [AccountCreator].
func (e *Engine) CreateAccount(ctx context.Context, identifier, secret string, role Role) (Account, error) {
	if e == nil || e.store == nil {
		return Account{}, ErrEngineNotReady
	}
	creator, ok := e.store.(AccountCreator)
	if !ok {
		return Account{}, errors.New("configured store does not support account creation")
	}
	if identifier == "" {
		return Account{}, errors.New("identifier is required")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Account{}, err
	}

	hash, err := e.passwordHash.Hash(secret)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		ID:         uuid.NewString(),
		Identifier: identifier,
		SecretHash: hash,
		Role:       role,
	}
	if err := creator.CreateAccount(ctx, account); err != nil {
		return Account{}, err
	}

	e.emitAudit(ctx, AuditAccountCreated, account.ID, true, nil)
	return account, nil
}

package fairauth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is an exported constant or variable used by the authentication engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountLocked is an exported constant or variable used by the authentication engine.
	ErrAccountLocked = errors.New("account locked")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an exported constant or variable used by the authentication engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is an exported constant or variable used by the authentication engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrRoleInvalid is an exported constant or variable used by the authentication engine.
	ErrRoleInvalid = errors.New("invalid account role")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockoutError is returned by [Engine.Authenticate] when the account is
// locked. Remaining is the time left in the lockout window, clamped to zero.
// errors.Is(err, ErrAccountLocked) matches.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account locked for %s", e.Remaining.Round(time.Second))
}

// Is reports whether target is [ErrAccountLocked].
func (e *LockoutError) Is(target error) bool {
	return target == ErrAccountLocked
}

// RemainingSeconds returns the lockout remainder rounded up to whole seconds,
// never below 1 while the lock is active. This is the value callers surface
// in locked responses.
func (e *LockoutError) RemainingSeconds() int64 {
	if e.Remaining <= 0 {
		return 0
	}
	secs := int64((e.Remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// CredentialError is returned by [Engine.Authenticate] when the presented
// secret does not match a known account. AttemptsRemaining is how many more
// consecutive failures the account can absorb before locking.
// errors.Is(err, ErrInvalidCredentials) matches.
//
// Unknown identifiers return the bare [ErrInvalidCredentials] sentinel
// instead, so the two cases are indistinguishable through errors.Is; only an
// embedding caller using errors.As can see the counter, and the wire layer
// must not expose it.
type CredentialError struct {
	AttemptsRemaining int
}

func (e *CredentialError) Error() string {
	return "invalid credentials"
}

// Is reports whether target is [ErrInvalidCredentials].
func (e *CredentialError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

package lockout

import "time"

const (
	// DefaultThreshold is the number of consecutive failures that trips a
	// lock when no threshold is configured.
	DefaultThreshold = 5
	// DefaultDuration is how long a tripped lock holds when no duration is
	// configured.
	DefaultDuration = 15 * time.Minute
)

// Policy decides whether an account is locked out from the stored failure
// bookkeeping alone. The lock is derived, never stored: an account is locked
// exactly when its consecutive failure count has reached Threshold and the
// most recent failure is younger than Duration. Once the window passes, the
// lock is over — no background job has to clear anything.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

// NewPolicy returns a Policy with the default threshold and duration.
func NewPolicy() Policy {
	return Policy{
		Threshold: DefaultThreshold,
		Duration:  DefaultDuration,
	}
}

// Decision is the outcome of evaluating a policy against one account's
// failure state at a given instant.
type Decision struct {
	// Locked reports whether the account is currently locked.
	Locked bool

	// Remaining is the time left until the lock releases. Zero unless
	// Locked.
	Remaining time.Duration

	// WindowExpired reports that a previously tripped lock has aged out:
	// the failure count is at or past the threshold but the last attempt
	// is outside the window. Callers should reset the counter before
	// recording the next outcome.
	WindowExpired bool
}

// Evaluate derives the lock state for an account with the given consecutive
// failure count and last-attempt timestamp, as of now. A zero lastAttempt
// means no failure was ever recorded and never locks.
func (p Policy) Evaluate(failedAttempts int, lastAttempt time.Time, now time.Time) Decision {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	duration := p.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}

	if failedAttempts < threshold || lastAttempt.IsZero() {
		return Decision{}
	}

	elapsed := now.Sub(lastAttempt)
	if elapsed >= duration {
		return Decision{WindowExpired: true}
	}

	return Decision{
		Locked:    true,
		Remaining: duration - elapsed,
	}
}

// AttemptsRemaining reports how many more consecutive failures the account
// can absorb before the lock trips. Never negative.
func (p Policy) AttemptsRemaining(failedAttempts int) int {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	remaining := threshold - failedAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

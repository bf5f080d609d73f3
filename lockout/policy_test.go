package lockout

import (
	"testing"
	"time"
)

func TestEvaluate_BelowThresholdNeverLocks(t *testing.T) {
	p := Policy{Threshold: 5, Duration: 15 * time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for failed := 0; failed < 5; failed++ {
		d := p.Evaluate(failed, now.Add(-time.Second), now)
		if d.Locked || d.WindowExpired {
			t.Fatalf("failed=%d: unexpected decision %+v", failed, d)
		}
	}
}

func TestEvaluate_AtThresholdInsideWindowLocks(t *testing.T) {
	p := Policy{Threshold: 5, Duration: 15 * time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := p.Evaluate(5, now.Add(-5*time.Minute), now)
	if !d.Locked {
		t.Fatalf("expected locked, got %+v", d)
	}
	if d.Remaining != 10*time.Minute {
		t.Fatalf("remaining = %v, want 10m", d.Remaining)
	}
}

func TestEvaluate_PastThresholdStillLocks(t *testing.T) {
	p := Policy{Threshold: 5, Duration: 15 * time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := p.Evaluate(9, now.Add(-time.Minute), now)
	if !d.Locked {
		t.Fatalf("expected locked, got %+v", d)
	}
}

func TestEvaluate_WindowBoundaryIsUnlocked(t *testing.T) {
	p := Policy{Threshold: 5, Duration: 15 * time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Exactly at the boundary the lock is over.
	d := p.Evaluate(5, now.Add(-15*time.Minute), now)
	if d.Locked {
		t.Fatalf("boundary must not be locked, got %+v", d)
	}
	if !d.WindowExpired {
		t.Fatalf("expected WindowExpired at boundary, got %+v", d)
	}

	// One nanosecond inside, still locked.
	d = p.Evaluate(5, now.Add(-15*time.Minute+time.Nanosecond), now)
	if !d.Locked {
		t.Fatalf("inside window must be locked, got %+v", d)
	}
}

func TestEvaluate_ZeroLastAttemptNeverLocks(t *testing.T) {
	p := Policy{Threshold: 5, Duration: 15 * time.Minute}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := p.Evaluate(10, time.Time{}, now)
	if d.Locked || d.WindowExpired {
		t.Fatalf("zero last attempt: unexpected decision %+v", d)
	}
}

func TestEvaluate_ZeroValuePolicyUsesDefaults(t *testing.T) {
	var p Policy
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d := p.Evaluate(DefaultThreshold, now.Add(-time.Minute), now)
	if !d.Locked {
		t.Fatalf("expected default threshold %d to lock, got %+v", DefaultThreshold, d)
	}
	if d.Remaining != DefaultDuration-time.Minute {
		t.Fatalf("remaining = %v, want %v", d.Remaining, DefaultDuration-time.Minute)
	}
}

func TestAttemptsRemaining(t *testing.T) {
	p := Policy{Threshold: 3, Duration: time.Minute}

	for _, tc := range []struct {
		failed int
		want   int
	}{
		{0, 3},
		{1, 2},
		{2, 1},
		{3, 0},
		{7, 0},
	} {
		if got := p.AttemptsRemaining(tc.failed); got != tc.want {
			t.Fatalf("AttemptsRemaining(%d) = %d, want %d", tc.failed, got, tc.want)
		}
	}
}

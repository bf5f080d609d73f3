package metrics

import "testing"

func TestIncAndSnapshot(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricAuthSuccess)
	m.Inc(MetricAuthSuccess)
	m.Inc(MetricLockoutTripped)

	if got := m.Get(MetricAuthSuccess); got != 2 {
		t.Fatalf("auth success = %d, want 2", got)
	}

	snap := m.Snapshot()
	if snap["auth_success"] != 2 {
		t.Fatalf("snapshot auth_success = %d, want 2", snap["auth_success"])
	}
	if snap["lockout_tripped"] != 1 {
		t.Fatalf("snapshot lockout_tripped = %d, want 1", snap["lockout_tripped"])
	}
	if snap["auth_failure"] != 0 {
		t.Fatalf("snapshot auth_failure = %d, want 0", snap["auth_failure"])
	}
}

func TestDisabledIsNoOp(t *testing.T) {
	m := New(Config{Enabled: false})

	m.Inc(MetricAuthSuccess)
	if got := m.Get(MetricAuthSuccess); got != 0 {
		t.Fatalf("disabled counter = %d", got)
	}
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Fatalf("disabled snapshot has %d entries", len(snap))
	}
}

func TestNilIsSafe(t *testing.T) {
	var m *Metrics

	m.Inc(MetricAuthFailure)
	if got := m.Get(MetricAuthFailure); got != 0 {
		t.Fatalf("nil counter = %d", got)
	}
}

func TestOutOfRangeIDIgnored(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricID(-1))
	m.Inc(metricIDCount + 5)

	for name, v := range m.Snapshot() {
		if v != 0 {
			t.Fatalf("%s = %d after out-of-range increments", name, v)
		}
	}
}

package metrics

import "sync/atomic"

// MetricID indexes one counter.
type MetricID int

const (
	MetricAuthSuccess MetricID = iota
	MetricAuthFailure
	MetricAuthLocked
	MetricLockoutTripped
	MetricLockoutExpired
	MetricVerifySuccess
	MetricVerifyExpired
	MetricVerifyInvalid
	MetricInvalidate
	MetricStoreError

	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricAuthSuccess:    "auth_success",
	MetricAuthFailure:    "auth_failure",
	MetricAuthLocked:     "auth_locked",
	MetricLockoutTripped: "lockout_tripped",
	MetricLockoutExpired: "lockout_expired",
	MetricVerifySuccess:  "verify_success",
	MetricVerifyExpired:  "verify_expired",
	MetricVerifyInvalid:  "verify_invalid",
	MetricInvalidate:     "invalidate",
	MetricStoreError:     "store_error",
}

// Name returns the stable snapshot key for id, or "unknown".
func (id MetricID) Name() string {
	if id < 0 || id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// Config controls whether counters are live.
type Config struct {
	Enabled bool
}

// Metrics is a fixed set of atomic counters. A nil or disabled Metrics is
// safe to use; every operation becomes a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters keyed by metric name.
type Snapshot map[string]uint64

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id < 0 || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() Snapshot {
	out := make(Snapshot, metricIDCount)
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id.Name()] = m.counters[id].Load()
	}
	return out
}

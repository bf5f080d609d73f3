package fairauth

// MetricsSnapshot returns a point-in-time copy of every engine counter,
// keyed by metric name. All counts are zero when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

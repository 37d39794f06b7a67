package persist

import (
	"sync/atomic"
	"time"
)

// Metrics tracks data API call metrics
type Metrics struct {
	remoteCalls   int64
	remoteErrors  int64
	remoteLatency int64 // Total latency in nanoseconds
	retries       int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		remoteCalls:   atomic.LoadInt64(&globalMetrics.remoteCalls),
		remoteErrors:  atomic.LoadInt64(&globalMetrics.remoteErrors),
		remoteLatency: atomic.LoadInt64(&globalMetrics.remoteLatency),
		retries:       atomic.LoadInt64(&globalMetrics.retries),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.remoteCalls, 0)
	atomic.StoreInt64(&globalMetrics.remoteErrors, 0)
	atomic.StoreInt64(&globalMetrics.remoteLatency, 0)
	atomic.StoreInt64(&globalMetrics.retries, 0)
}

// recordRemoteCall records one round-trip against the upstream data API
func recordRemoteCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.remoteCalls, 1)
	atomic.AddInt64(&globalMetrics.remoteLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.remoteErrors, 1)
	}
}

func recordRetry() {
	atomic.AddInt64(&globalMetrics.retries, 1)
}

// RemoteCalls returns the number of round-trips made
func (m Metrics) RemoteCalls() int64 { return m.remoteCalls }

// Retries returns the number of retried attempts
func (m Metrics) Retries() int64 { return m.retries }

// AverageRemoteLatency returns the average latency in milliseconds
func (m Metrics) AverageRemoteLatency() float64 {
	if m.remoteCalls == 0 {
		return 0
	}
	avgNs := float64(m.remoteLatency) / float64(m.remoteCalls)
	return avgNs / 1e6 // Convert nanoseconds to milliseconds
}

// RemoteErrorRate returns the error rate as a percentage
func (m Metrics) RemoteErrorRate() float64 {
	if m.remoteCalls == 0 {
		return 0
	}
	return float64(m.remoteErrors) / float64(m.remoteCalls) * 100
}

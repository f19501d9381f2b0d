package topocodec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordEncode is called after each field encode. bytes is the total
	// archive size, duration the time taken, err nil on success.
	RecordEncode(bytes int, duration time.Duration, err error)

	// RecordDecode is called after each field decode.
	RecordDecode(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEncode(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDecode(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EncodeCount      atomic.Int64
	EncodeErrors     atomic.Int64
	EncodeBytes      atomic.Int64
	EncodeTotalNanos atomic.Int64
	DecodeCount      atomic.Int64
	DecodeErrors     atomic.Int64
	DecodeBytes      atomic.Int64
	DecodeTotalNanos atomic.Int64
}

func (m *BasicMetricsCollector) RecordEncode(bytes int, d time.Duration, err error) {
	m.EncodeCount.Add(1)
	m.EncodeBytes.Add(int64(bytes))
	m.EncodeTotalNanos.Add(int64(d))
	if err != nil {
		m.EncodeErrors.Add(1)
	}
}

func (m *BasicMetricsCollector) RecordDecode(bytes int, d time.Duration, err error) {
	m.DecodeCount.Add(1)
	m.DecodeBytes.Add(int64(bytes))
	m.DecodeTotalNanos.Add(int64(d))
	if err != nil {
		m.DecodeErrors.Add(1)
	}
}

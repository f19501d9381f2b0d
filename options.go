package topocodec

import (
	"github.com/hupe1980/topocodec/backend"
)

type options struct {
	backend   backend.Backend
	tolerance float64
	logger    *Logger
	metrics   MetricsCollector
}

// Option configures a Codec.
type Option func(*options)

// WithBackend configures the compressor backend for residual arrays.
// If nil is passed, backend.Default() is used.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		if b == nil {
			b = backend.Default()
		}
		o.backend = b
	}
}

// WithTolerance configures the absolute error tolerance committed by the
// fixed-accuracy backend. Byte backends ignore it.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithLogger configures the diagnostic sink. If nil is passed, logging is
// disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures metrics collection. If nil is passed,
// metrics are discarded.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

func defaultOptions() options {
	return options{
		backend:   backend.Default(),
		tolerance: 0,
		logger:    NoopLogger(),
		metrics:   NoopMetricsCollector{},
	}
}

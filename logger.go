package topocodec

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with topocodec-specific context. It is the
// diagnostic sink the codec reports through; the codec owns no logging
// policy of its own.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithField adds a field name to the logger.
func (l *Logger) WithField(name string) *Logger {
	return &Logger{Logger: l.Logger.With("field", name)}
}

// WithBackend adds the backend name to the logger.
func (l *Logger) WithBackend(name string) *Logger {
	return &Logger{Logger: l.Logger.With("backend", name)}
}

// LogEncode logs the outcome of one field encode.
func (l *Logger) LogEncode(vertices, bytes int, err error) {
	if err != nil {
		l.Error("encode failed",
			"vertices", vertices,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.Debug("encode completed",
			"vertices", vertices,
			"bytes", bytes,
		)
	}
}

// LogDecode logs the outcome of one field decode.
func (l *Logger) LogDecode(vertices, bytes int, err error) {
	if err != nil {
		l.Error("decode failed",
			"vertices", vertices,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.Debug("decode completed",
			"vertices", vertices,
			"bytes", bytes,
		)
	}
}

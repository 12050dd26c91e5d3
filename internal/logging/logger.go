// Package logging provides structured logging for lockable.
// It wraps Go's log/slog package to produce JSON-formatted logs with
// persistent context attributes (resource, claimant, operation).
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Logger provides structured logging with context propagation.
// It is safe for concurrent use.
type Logger struct {
	logger *slog.Logger
	out    io.Closer   // nil unless the Logger owns its output
	mu     *sync.Mutex // shared with child loggers; protects out
	attrs  []slog.Attr
}

// NewLogger creates a Logger that writes JSON lines to path, rotating the
// file by size as rot describes. Parent directories are created as needed.
// If path is empty, logs go to stderr and rot is ignored.
//
// The level parameter controls which messages are logged (DEBUG, INFO,
// WARN, ERROR); unknown values fall back to INFO.
func NewLogger(path string, level string, rot RotationConfig) (*Logger, error) {
	if path == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}
	rw, err := NewRotatingWriter(path, rot)
	if err != nil {
		return nil, err
	}
	l := NewWriterLogger(rw, level)
	l.out = rw
	return l, nil
}

// NewWriterLogger creates a Logger writing JSON lines to w. Close does not
// close w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{
		logger: slog.New(handler),
		mu:     &sync.Mutex{},
	}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithResource returns a child Logger tagging every entry with the resource name.
func (l *Logger) WithResource(name string) *Logger {
	return l.withAttr(slog.String("resource", name))
}

// WithClaimant returns a child Logger tagging every entry with the claimant.
func (l *Logger) WithClaimant(claimant string) *Logger {
	return l.withAttr(slog.String("claimant", claimant))
}

// WithOperation returns a child Logger tagging every entry with the
// registry operation (reserve, unlock, reset, ...).
func (l *Logger) WithOperation(op string) *Logger {
	return l.withAttr(slog.String("op", op))
}

// With returns a child Logger with arbitrary key-value attributes.
// Keys and values are provided as alternating arguments; non-string keys
// are ignored.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	child := l.clone(len(args) / 2)
	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		child.attrs = append(child.attrs, slog.Any(key, args[i+1]))
	}
	return child
}

func (l *Logger) withAttr(attr slog.Attr) *Logger {
	child := l.clone(1)
	child.attrs = append(child.attrs, attr)
	return child
}

func (l *Logger) clone(extra int) *Logger {
	attrs := make([]slog.Attr, len(l.attrs), len(l.attrs)+extra)
	copy(attrs, l.attrs)
	return &Logger{
		logger: l.logger,
		out:    l.out,
		mu:     l.mu,
		attrs:  attrs,
	}
}

// Debug logs a message at DEBUG level with optional key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs a message at INFO level with optional key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a message at WARN level with optional key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs a message at ERROR level with optional key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l == nil {
		return
	}
	allArgs := make([]any, 0, len(l.attrs)*2+len(args))
	for _, attr := range l.attrs {
		allArgs = append(allArgs, attr.Key, attr.Value.Any())
	}
	allArgs = append(allArgs, args...)

	l.logger.Log(context.Background(), level, msg, allArgs...)
}

// Close flushes and closes the log file. Loggers writing to stderr or to a
// caller-provided writer ignore Close.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return nil
	}
	return l.out.Close()
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return NewWriterLogger(io.Discard, LevelError)
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// ConfigureLogger replaces the global logger's handler. format is "json" or "text".
func ConfigureLogger(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns ctx carrying a correlation ID, generating one if needed.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := ExtractCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := GenerateCorrelationID()
	return WithCorrelationID(ctx, id), id
}

// APILogger provides structured logging for outbound API calls.
type APILogger struct {
	component string
}

// NewAPILogger creates a new APILogger for the given component.
func NewAPILogger(component string) *APILogger {
	return &APILogger{component: component}
}

// LogRequest logs an outbound request at debug level.
func (l *APILogger) LogRequest(ctx context.Context, method, path string) {
	GlobalLogger.DebugContext(ctx, "api request",
		slog.String("component", l.component),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogResponse logs a completed request.
func (l *APILogger) LogResponse(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	GlobalLogger.InfoContext(ctx, "api response",
		slog.String("component", l.component),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs a failed request.
func (l *APILogger) LogError(ctx context.Context, method, path string, err error) {
	GlobalLogger.ErrorContext(ctx, "api error",
		slog.String("component", l.component),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// SessionLogger provides structured logging for session lifecycle events.
type SessionLogger struct{}

// NewSessionLogger creates a new SessionLogger.
func NewSessionLogger() *SessionLogger {
	return &SessionLogger{}
}

// LogEvent logs a session lifecycle event.
func (l *SessionLogger) LogEvent(ctx context.Context, event string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("event", event),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.InfoContext(ctx, "session event", attrs...)
}

// LogError logs a session failure.
func (l *SessionLogger) LogError(ctx context.Context, event string, err error) {
	GlobalLogger.ErrorContext(ctx, "session error",
		slog.String("event", event),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

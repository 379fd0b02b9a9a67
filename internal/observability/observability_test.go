package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path     string
		expected string
	}{
		{"/posts", "/posts"},
		{"/posts/0123456789abcdef01234567/like", "/posts/:id/like"},
		{"/users/0123456789ABCDEF01234567/stats", "/users/:id/stats"},
		{"/users/alice", "/users/alice"},
		{"/gifts/user/0123456789abcdef01234567/stats", "/gifts/user/:id/stats"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EndpointLabel(tt.path))
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx, id := EnsureCorrelationID(context.Background())
	require.NotEmpty(t, id)
	assert.Equal(t, id, ExtractCorrelationID(ctx))

	again, same := EnsureCorrelationID(ctx)
	assert.Equal(t, id, same)
	assert.Equal(t, ctx, again)
}

func TestSessionLogger_WritesStructuredEvent(t *testing.T) {
	previous := GlobalLogger
	defer func() { GlobalLogger = previous }()

	var buf bytes.Buffer
	ConfigureLogger(&buf, "info", "json")

	ctx := WithCorrelationID(context.Background(), "corr-1")
	NewSessionLogger().LogEvent(ctx, "login", map[string]interface{}{"user_id": "u1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "session event", entry["msg"])
	assert.Equal(t, "login", entry["event"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "test", Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_StdoutExporter(t *testing.T) {
	prevProvider, prevPropagator, prevTracer := otel.GetTracerProvider(), otel.GetTextMapPropagator(), Tracer
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
		Tracer = prevTracer
	})

	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "smilegift-test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1,
		Writer:       &buf,
	})
	require.NoError(t, err)

	ctx := WithCorrelationID(context.Background(), "corr-7")
	ctx, span := StartClientSpan(ctx, http.MethodGet, "/posts/:id")
	h := http.Header{}
	InjectTraceHeaders(ctx, h)
	EndSpan(span, http.StatusNotFound, errors.New("Post not found"))
	require.NoError(t, shutdown(context.Background()))

	assert.NotEmpty(t, h.Get("traceparent"))
	assert.Contains(t, buf.String(), "GET /posts/:id")
	assert.Contains(t, buf.String(), "corr-7")
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{ServiceName: "test", Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}

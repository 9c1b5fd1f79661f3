package tracing

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	shutdown, err := Init(ctx, Config{Enabled: true, ServiceName: "elevplot-test", SampleRatio: 1, Writer: &buf}, discardLogger())
	require.NoError(t, err)

	_, span := otel.Tracer("tracing_test").Start(ctx, "resolve-target")
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), "resolve-target")
	assert.Contains(t, buf.String(), "elevplot-test")
}

func TestInitDisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{}, discardLogger())
	require.NoError(t, err)

	_, span := otel.Tracer("tracing_test").Start(ctx, "ignored")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, shutdown(ctx))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ELEVPLOT_TRACING_ENABLED", "TRUE")
	t.Setenv("ELEVPLOT_TRACING_SAMPLE_RATIO", "0.25")
	cfg := ConfigFromEnv(discardLogger())
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.25, cfg.SampleRatio)

	t.Setenv("ELEVPLOT_TRACING_SAMPLE_RATIO", "7")
	assert.Equal(t, 1.0, ConfigFromEnv(discardLogger()).SampleRatio)
}

func TestShutdownWithTimeoutNil(t *testing.T) {
	ShutdownWithTimeout(context.Background(), nil, discardLogger())
}

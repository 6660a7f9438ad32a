package observability

import (
	"context"
	"testing"

	"github.com/safar/go-storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LogConfig{Level: "debug", Env: "development"}, "storefront-test")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(config.LogConfig{Level: "warn", Env: "production"}, "storefront-test")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "loud"}, "storefront-test")
	assert.Error(t, err)
}

func TestSetupTracingWithoutExporter(t *testing.T) {
	ctx := context.Background()

	tp, shutdown, err := SetupTracing(ctx, config.TelemetryConfig{ServiceName: "storefront-test"})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "op")
	assert.True(t, span.SpanContext().IsValid())

	ro, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok)
	name, found := ro.Resource().Set().Value("service.name")
	require.True(t, found)
	assert.Equal(t, "storefront-test", name.AsString())
	span.End()

	assert.NoError(t, shutdown(ctx))
}

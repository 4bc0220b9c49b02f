package instrumentation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	require.NotNil(t, provider.Metrics())

	// Recording on a disabled provider must be a safe no-op.
	ctx := context.Background()
	provider.Metrics().RecordMessage(ctx, "text")
	provider.Metrics().RecordTranscription(ctx, ResultSuccess)
	provider.Metrics().RecordExtraction(ctx, ResultAbsent)
	provider.Metrics().RecordEventCreated(ctx, ResultError)
	provider.Metrics().RecordAuthFlow(ctx, AuthStarted)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestNewProviderEnabled(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		Enabled:        true,
		ServiceName:    "gigacal-test",
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(ctx) }()

	assert.True(t, provider.Enabled())
	require.NotNil(t, provider.Metrics())

	provider.Metrics().RecordMessage(ctx, "voice")
	provider.Metrics().RecordEventCreated(ctx, ResultSuccess)
}

func TestZeroMetricsIsNoop(t *testing.T) {
	m := &Metrics{}
	ctx := context.Background()

	// Must not panic with no counters registered.
	m.RecordMessage(ctx, "text")
	m.RecordTranscription(ctx, ResultSuccess)
	m.RecordExtraction(ctx, ResultSuccess)
	m.RecordEventCreated(ctx, ResultSuccess)
	m.RecordAuthFlow(ctx, AuthCompleted)
}

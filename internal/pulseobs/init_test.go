package pulseobs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/internal/pulseobs"
)

func TestInit_NoopWithoutOTLPEndpoint(t *testing.T) {
	t.Parallel()

	cfg := pulseobs.DefaultConfig()

	providers, err := pulseobs.Init(cfg, buildmode.Development, pulseobs.Gauges{})
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.NotNil(t, providers.Metrics)

	assert.NoError(t, providers.Shutdown(context.Background(), cfg))
}

func TestProviders_Shutdown_NilSafe(t *testing.T) {
	t.Parallel()

	var providers *pulseobs.Providers

	assert.NoError(t, providers.Shutdown(context.Background(), pulseobs.DefaultConfig()))
}

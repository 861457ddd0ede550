package pulseobs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/pulse/buildmode"
	"github.com/archlens/pulse/internal/pulseobs"
)

func TestModeHandler_InjectsServiceAndBuildMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := pulseobs.NewModeHandler(inner, "pulse-test", buildmode.QA)
	logger := slog.New(handler)

	logger.InfoContext(context.Background(), "sink write failed")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "pulse-test", decoded["service"])
	assert.Equal(t, string(buildmode.QA), decoded["build_mode"])
	assert.Equal(t, "sink write failed", decoded["msg"])
}

func TestModeHandler_WithGroupPreservesTopLevelAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{})
	handler := pulseobs.NewModeHandler(inner, "pulse-test", buildmode.Development).WithGroup("sink")
	logger := slog.New(handler)

	logger.Info("grouped")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "pulse-test", decoded["service"])
}

func TestNewLogger_TextAndJSON(t *testing.T) {
	t.Parallel()

	cfg := pulseobs.DefaultConfig()
	cfg.LogJSON = true

	logger := pulseobs.NewLogger(cfg, buildmode.Production)
	assert.NotNil(t, logger)

	cfg.LogJSON = false
	logger = pulseobs.NewLogger(cfg, buildmode.Production)
	assert.NotNil(t, logger)
}

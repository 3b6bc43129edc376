package observability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/webpilot-dev/webpilot/internal/config"
)

// syncBuffer is an in-memory WriteSyncer for capturing console output.
type syncBuffer struct {
	strings.Builder
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitialize_WritesToConsole(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "webpilot-test",
	}, buf)

	GetLogger().Info("hello from test")

	out := buf.String()
	assert.Contains(t, out, "hello from test")
	assert.Contains(t, out, "webpilot-test")
}

func TestInitialize_RunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, second)

	GetLogger().Info("routed to first")
	assert.Contains(t, first.String(), "routed to first")
	assert.Empty(t, second.String())
}

func TestInitialize_LevelFiltering(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, buf)

	GetLogger().Info("too quiet")
	GetLogger().Warn("loud enough")

	out := buf.String()
	assert.NotContains(t, out, "too quiet")
	assert.Contains(t, out, "loud enough")
}

func TestInitialize_InvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(config.LoggerConfig{Level: "nonsense", Format: "json"}, buf)

	GetLogger().Info("still logged")
	assert.Contains(t, buf.String(), "still logged")
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "x"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(config.LoggerConfig{Level: "bogus"})
	require.Error(t, err)
}

func TestGetLogger_FallbackBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotNil(t, GetLogger())
}

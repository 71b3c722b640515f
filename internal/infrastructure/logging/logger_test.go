package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	log, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.Equal(t, zapcore.InfoLevel, log.Level())
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	log, err := FromConfig("", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = FromConfig("warn", true)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = FromConfig("", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestSetLevelReachesChildren(t *testing.T) {
	log, err := New(DefaultConfig())
	require.NoError(t, err)
	child := log.Named("sandbox").ForSession("s1")

	require.NoError(t, log.SetLevel("error"))
	assert.False(t, child.Core().Enabled(zapcore.WarnLevel))
	assert.Equal(t, zapcore.ErrorLevel, child.Level())

	assert.Error(t, log.SetLevel("loud"))
}

func TestForSession(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core))

	log.ForSession("sess_1").Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sess_1", logs.All()[0].ContextMap()["session_id"])
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Named("x").ForSession("s").Info("discarded")
	assert.NoError(t, log.SetLevel("debug"))
}

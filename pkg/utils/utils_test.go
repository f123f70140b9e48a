package utils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidateVideoFilename(t *testing.T) {
	for _, name := range []string{"clip.mp4", "CLIP.MOV", "dash/cam.avi", "a.b.mkv"} {
		assert.NoError(t, ValidateVideoFilename(name), name)
	}
	for _, name := range []string{"", "clip.gif", "clip", "report.pdf"} {
		assert.Error(t, ValidateVideoFilename(name), name)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Time: 10:30\nsevere\tdamage", SanitizeString("Time: 10:30\x00\nsev\x07ere\tdamage"))
}

func TestKVLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewKVLogger(zap.New(core))

	logger.Info("Audit completed", "score", 50, "status", "COMPLETE", 42, "dropped")
	logger.Error("Failed", "error", errors.New("boom"), "dangling")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{"score": int64(50), "status": "COMPLETE"}, entries[0].ContextMap())
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, path)

	logger, err = NewLogger(LoggerConfig{Level: "not-a-level"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

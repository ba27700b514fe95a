package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("生产模式输出 JSON", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Level: "info"}, &buf)

		log.Info("subscriber created", zap.String("email", "a@b.co"))
		require.NoError(t, log.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "subscriber created", entry["message"])
		assert.Equal(t, "a@b.co", entry["email"])
		assert.Contains(t, entry, "timestamp")
	})

	t.Run("低于级别的日志被丢弃", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Level: "warn"}, &buf)

		log.Info("ignored")
		assert.Zero(t, buf.Len())
	})

	t.Run("无效级别回退到 info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Level: "loud"}, &buf)

		log.Debug("ignored")
		log.Info("kept")
		assert.Contains(t, buf.String(), "kept")
		assert.NotContains(t, buf.String(), "ignored")
	})
}

func TestNewCreatesLogDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "server.log")

	log, err := New(Config{Level: "info", File: file})
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	assert.DirExists(t, filepath.Join(dir, "logs"))
}

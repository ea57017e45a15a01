package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LevelInfo)
	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Error("failed: %s", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO ] shown 2")
	assert.Contains(t, out, "[ERROR] failed: boom")
	assert.False(t, strings.Contains(out, "\x1b["))
	assert.False(t, log.IsLevelEnabled(LevelDebug))
	assert.True(t, log.IsLevelEnabled(LevelWarn))
}

func TestWriterLoggerPrefixAndMetadata(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, LevelTrace).WithPrefix("[cache]").WithPrefix("[cache]").With(map[string]interface{}{"key": "scoreboard"})
	log.Warn("write failed")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "[cache]"))
	assert.Contains(t, out, "[cache] write failed")
	assert.Contains(t, out, `{"key":"scoreboard"}`)
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriterLogger(&buf, LevelInfo)
	_ = parent.With(map[string]interface{}{"a": 1})
	parent.Info("plain")
	assert.NotContains(t, buf.String(), `"a"`)
}

package output

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

var clockPrefix = regexp.MustCompile(`^\d{2}:\d{2}:\d{2} `)

// withLogBuffer points the package logger at a buffer for the duration of t.
func withLogBuffer(t *testing.T, cfg LogConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logger
	logger = newLogger(&buf, cfg)
	t.Cleanup(func() { logger = prev })
	return &buf
}

func TestLoggerTimestamps(t *testing.T) {
	tests := []struct {
		name string
		cfg  LogConfig
		want bool
	}{
		{"default on", LogConfig{}, true},
		{"disabled", LogConfig{Timestamps: BoolPtr(false)}, false},
		{"verbose forces on", LogConfig{Verbose: true, Timestamps: BoolPtr(false)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := withLogBuffer(t, tt.cfg)
			Info("partitioned", "chunks", 4)
			assert.Equal(t, tt.want, clockPrefix.MatchString(strings.TrimSpace(buf.String())))
		})
	}
}

func TestSetupLoggingLevel(t *testing.T) {
	prev := logger
	defer func() { logger = prev }()

	SetupLogging(LogConfig{Verbose: true})
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.True(t, debugEnabled())

	SetupLogging(LogConfig{})
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.False(t, debugEnabled())
}

func TestDebugHiddenAtInfoLevel(t *testing.T) {
	buf := withLogBuffer(t, LogConfig{Timestamps: BoolPtr(false)})
	Debug("rule evaluated", "rule", "react")
	Info("chunk emitted", "chunk", "application")
	assert.NotContains(t, buf.String(), "rule evaluated")
	assert.Contains(t, buf.String(), "chunk=application")
}

func TestChunkLoggerPrefix(t *testing.T) {
	withLogBuffer(t, LogConfig{Verbose: true})
	l := ChunkLogger("chunk-react")
	assert.Contains(t, l.GetPrefix(), "chunk-react")
	assert.Equal(t, log.DebugLevel, l.GetLevel())
}

func TestSetStdout(t *testing.T) {
	var buf bytes.Buffer
	restore := SetStdout(&buf)
	Println("done")
	restore()

	assert.Equal(t, "done\n", buf.String())
}

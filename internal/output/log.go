// Package output provides terminal output utilities.
package output

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// logger is the package-level logger. Replaced by SetupLogging.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// stdout is where Print and Println write. Swapped in tests.
var (
	stdoutMu sync.Mutex
	stdout   io.Writer = os.Stdout
)

// LogConfig controls logger setup.
type LogConfig struct {
	// Verbose enables debug level, timestamps and caller reporting.
	Verbose bool

	// Timestamps overrides timestamp reporting. Nil means on.
	// Ignored when Verbose is set.
	Timestamps *bool
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// SetupLogging configures the package logger.
func SetupLogging(cfg LogConfig) {
	logger = newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg LogConfig) *log.Logger {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	timestamps := true
	if !cfg.Verbose && cfg.Timestamps != nil {
		timestamps = *cfg.Timestamps
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// ChunkLogger returns a logger scoped to one chunk, prefixed "c:<name>".
func ChunkLogger(name string) *log.Logger {
	return logger.WithPrefix(StyleDim.Render("c:") + lipgloss.NewStyle().Foreground(ColorCyan).Render(name))
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}

// Print prints a message to stdout without any formatting.
func Print(msg string) {
	stdoutMu.Lock()
	defer stdoutMu.Unlock()
	io.WriteString(stdout, msg)
}

// Println prints a message to stdout with a newline.
func Println(msg string) {
	Print(msg + "\n")
}

// Stdout returns the writer Print and Println use.
func Stdout() io.Writer {
	return lockedWriter{}
}

// SetStdout redirects Print and Println to w. The returned function
// restores the previous writer.
func SetStdout(w io.Writer) func() {
	stdoutMu.Lock()
	prev := stdout
	stdout = w
	stdoutMu.Unlock()
	return func() {
		stdoutMu.Lock()
		stdout = prev
		stdoutMu.Unlock()
	}
}

type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	stdoutMu.Lock()
	defer stdoutMu.Unlock()
	return stdout.Write(p)
}

func debugEnabled() bool {
	return logger.GetLevel() <= log.DebugLevel
}

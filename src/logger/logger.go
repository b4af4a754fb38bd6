package logger

import (
	"fmt"
	"os"
	"strings"
)

// Logger defines the interface for logging throughout the bot.
// Implementations are swapped per command: zap for the daemon, silent for the TUI.
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
type ConsoleLogger struct {
	debug bool
}

// NewConsoleLogger creates a console logger. Debug lines are dropped unless debug is set.
func NewConsoleLogger(debug bool) *ConsoleLogger {
	return &ConsoleLogger{debug: debug}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	fmt.Printf("[INFO] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if c.debug {
		fmt.Printf("[DEBUG] "+msg+"\n", args...)
	}
}

// SilentLogger discards all log messages.
// Used when running the status board so log output does not corrupt the display.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}

// With returns a logger that attaches key/value pairs to every entry.
// Zap loggers carry them as structured fields; other loggers append
// them to the message as key=value.
func With(l Logger, keysAndValues ...interface{}) Logger {
	switch l := l.(type) {
	case *ZapLogger:
		return l.With(keysAndValues...)
	case *SilentLogger:
		return l
	}

	var sb strings.Builder
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	return &fieldLogger{next: l, suffix: strings.ReplaceAll(sb.String(), "%", "%%")}
}

type fieldLogger struct {
	next   Logger
	suffix string
}

func (f *fieldLogger) Info(msg string, args ...interface{})  { f.next.Info(msg+f.suffix, args...) }
func (f *fieldLogger) Error(msg string, args ...interface{}) { f.next.Error(msg+f.suffix, args...) }
func (f *fieldLogger) Debug(msg string, args ...interface{}) { f.next.Debug(msg+f.suffix, args...) }

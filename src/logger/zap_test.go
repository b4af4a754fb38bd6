package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Debug("hidden %d", 1)
	l.Info("processed %d jobs", 3)
	l.Error("failed: %s", "boom")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "processed 3 jobs" {
		t.Errorf("entries[0] = %q, want %q", entries[0].Message, "processed 3 jobs")
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("entries[1].Level = %v, want error", entries[1].Level)
	}
}

func TestZapLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core)).With("cycle", "abc")

	l.Debug("tick")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["cycle"]; got != "abc" {
		t.Errorf("cycle field = %v, want abc", got)
	}
}

func TestNewZapLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "console", false},
		{"DEBUG", "json", false},
		{"warn", "", false},
		{"loud", "console", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			_, err := NewZapLogger(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewZapLogger(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			}
		})
	}
}

var _ Logger = (*ZapLogger)(nil)
var _ Logger = (*ConsoleLogger)(nil)
var _ Logger = (*SilentLogger)(nil)

func TestNew(t *testing.T) {
	l, err := New("debug", "plain")
	if err != nil {
		t.Fatalf("New(debug, plain) error = %v", err)
	}
	console, ok := l.(*ConsoleLogger)
	if !ok {
		t.Fatalf("New(debug, plain) = %T, want *ConsoleLogger", l)
	}
	if !console.debug {
		t.Error("plain logger at debug level drops debug lines")
	}
	if err := Sync(l); err != nil {
		t.Errorf("Sync(console) error = %v", err)
	}

	l, err = New("info", "json")
	if err != nil {
		t.Fatalf("New(info, json) error = %v", err)
	}
	if _, ok := l.(*ZapLogger); !ok {
		t.Errorf("New(info, json) = %T, want *ZapLogger", l)
	}

	if _, err := New("chatty", "plain"); err == nil {
		t.Error("New(chatty, plain) expected error")
	}
}

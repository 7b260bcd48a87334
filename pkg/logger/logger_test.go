package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestLogger(level string) (*AppLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLoggerWithWriter(level, buf)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, buf
}

func TestAppLogger_Format(t *testing.T) {
	l, buf := newTestLogger("info")

	l.Info("Reading resolved", "reading_id", 42, "state", "open")

	want := "[2024-01-02 03:04:05] INFO: Reading resolved reading_id=42 state=open\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestAppLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger("warn")

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("also shown", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "WARN: shown") {
		t.Fatalf("expected warn line, got %q", out)
	}
	if !strings.Contains(out, "ERROR: also shown error=boom") {
		t.Fatalf("expected error line with error field, got %q", out)
	}
}

func TestAppLogger_OddFieldsIgnored(t *testing.T) {
	l, buf := newTestLogger("debug")

	l.Debug("odd", "key")

	if strings.Contains(buf.String(), "key") {
		t.Fatalf("expected dangling key to be dropped, got %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"error", ERROR},
		{"nonsense", INFO},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

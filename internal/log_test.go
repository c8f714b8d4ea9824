package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{" debug ", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"", LogLevelInfo},
		{"VERBOSE", LogLevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLogLevel(tc.in); got != tc.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Error("boom: %d", 1)
	logger.Warn("degraded")
	logger.Info("routine")
	logger.Debug("detail")

	out := buf.String()
	if !strings.Contains(out, "[ERROR] boom: 1") {
		t.Errorf("error line missing from output: %q", out)
	}
	if !strings.Contains(out, "[WARN] degraded") {
		t.Errorf("warn line missing from output: %q", out)
	}
	if strings.Contains(out, "routine") || strings.Contains(out, "detail") {
		t.Errorf("lines above the configured level must be dropped: %q", out)
	}
}

func TestLogger_DebugLevelPassesEverything(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelDebug)

	logger.Debug("detail")
	logger.Info("routine")

	out := buf.String()
	if !strings.Contains(out, "[DEBUG] detail") || !strings.Contains(out, "[INFO] routine") {
		t.Errorf("debug level should pass every line, got %q", out)
	}
}

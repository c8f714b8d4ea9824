package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel orders verbosity from quietest to noisiest. Messages above the
// configured level are dropped before formatting.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// ParseLogLevel maps a LOG_LEVEL value to a level. Unknown or empty values
// fall back to Info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// Logger is the service-wide leveled logger.
type Logger struct {
	level LogLevel
	out   *log.Logger
}

// NewLogger creates a logger writing to stderr at the given level.
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo directs output to w. Tests use it to capture log lines.
func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// NewDefaultLogger reads the level from the LOG_LEVEL environment variable.
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
}

func (l *Logger) logf(level LogLevel, tag, format string, args ...interface{}) {
	if level > l.level {
		return
	}
	l.out.Printf(tag+" "+format, args...)
}

// Error logs failures that surface to callers as internal errors.
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, "[ERROR]", format, args...)
}

// Warn logs degraded but non-fatal conditions.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, "[WARN]", format, args...)
}

// Info logs normal operational events.
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, "[INFO]", format, args...)
}

// Debug logs per-request detail for diagnosing estimation runs.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, "[DEBUG]", format, args...)
}

// DefaultLogger is the process-wide fallback for components built without an
// explicit logger.
var DefaultLogger = NewDefaultLogger()

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	mu       sync.RWMutex
	current  = LevelInfo
	slogVar  = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogVar}))
	initOnce sync.Once
)

// initFromEnv applies DEBUG / LOG_LEVEL on first use unless Configure ran first.
func initFromEnv() {
	initOnce.Do(func() {
		if debug := os.Getenv("DEBUG"); debug != "" {
			switch strings.ToLower(debug) {
			case "1", "true", "yes", "on":
				setLevel(LevelDebug)
				return
			}
		}
		if level, err := ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
			setLevel(level)
		}
	})
}

// ParseLevel converts a level name to a LogLevel. An empty string yields LevelInfo.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %q", s)
	}
}

// Configure sets the level and output format ("text" or "json") of the
// process-wide logger. It overrides anything picked up from the environment.
func Configure(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	opts := &slog.HandlerOptions{Level: slogVar}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format: %q", format)
	}

	initOnce.Do(func() {})
	setLevel(lvl)

	mu.Lock()
	logger = slog.New(handler)
	mu.Unlock()
	return nil
}

// SetOutput redirects log output, keeping the current level. Used by tests
// and the CLI to capture or silence logs.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogVar}))
}

func setLevel(level LogLevel) {
	mu.Lock()
	current = level
	mu.Unlock()
	slogVar.Set(level.slogLevel())
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initFromEnv()
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Logger returns the underlying structured logger.
func Logger() *slog.Logger {
	initFromEnv()
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func emit(level LogLevel, format string, args ...interface{}) {
	if GetLevel() > level {
		return
	}
	Logger().Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...))
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	emit(LevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	emit(LevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	emit(LevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	emit(LevelError, format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	Logger().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Package logger provides component-tagged logging for hookchat.
// Output goes to stderr so piped stdout (e.g. `hookchat send`) stays clean.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Getenv("HOOKCHAT_LOG_LEVEL"), os.Getenv("HOOKCHAT_LOG_FORMAT"))
)

func newLogger(level, format string) zerolog.Logger {
	var w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	base := zerolog.New(w)
	if format == "json" {
		base = zerolog.New(os.Stderr)
	}
	return base.Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "quiet":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// SetLevel overrides the log level at runtime (e.g. from a --verbose flag).
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(parseLevel(level))
}

func emit(ev *zerolog.Event, component, msg string, fields map[string]interface{}) {
	ev = ev.Str("component", component)
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(msg)
}

func DebugCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Debug(), component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Info(), component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Warn(), component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Error(), component, msg, fields)
}

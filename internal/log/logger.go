// Package log wraps log/slog with component-scoped loggers, field
// builders and HTTP middleware.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with a component attribute. base and attrs
// keep what the component was layered on, so it can be swapped.
type Logger struct {
	*slog.Logger
	base  slog.Handler
	attrs []any
}

type Config struct {
	Level     slog.Level
	Component string
	// Output defaults to stdout. Ignored when Handler is set.
	Output  io.Writer
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return &Logger{
		Logger: slog.New(handler).With(FieldComponent, component),
		base:   handler,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels; anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		base:   l.base,
		attrs:  append(append([]any(nil), l.attrs...), args...),
	}
}

// WithComponent returns a logger whose component attribute is component,
// keeping the attributes added with With.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: slog.New(l.base).With(l.attrs...).With(FieldComponent, component),
		base:   l.base,
		attrs:  l.attrs,
	}
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Package logger wraps zerolog behind a small structured-logging API.
//
// Every pipeline stage receives a *Logger explicitly — there is no ambient
// singleton in the analysis path, which keeps the detectors deterministic
// and testable in isolation.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with the project's conventions.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // rfc3339, unix, unixms, unixmicro
	Output     io.Writer
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: "rfc3339",
		Output:     os.Stderr,
	}
}

// New creates a logger from the given config. A nil config uses defaults.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = timeFormat(cfg.TimeFormat)

	var zlog zerolog.Logger
	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: time.RFC3339,
		}
		zlog = zerolog.New(output).With().Timestamp().Logger()
	} else {
		zlog = zerolog.New(cfg.Output).With().Timestamp().Logger()
	}

	return &Logger{zlog: zlog}
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.zlog.WithContext(ctx)
}

// FromContext retrieves the logger from ctx, or a default logger if absent.
func FromContext(ctx context.Context) *Logger {
	zlog := zerolog.Ctx(ctx)
	if zlog.GetLevel() == zerolog.Disabled {
		return New(nil)
	}
	return &Logger{zlog: *zlog}
}

// With starts a child logger with additional fields.
func (l *Logger) With() *Context {
	return &Context{ctx: l.zlog.With()}
}

// Context wraps zerolog.Context for field chaining.
type Context struct {
	ctx zerolog.Context
}

func (c *Context) Str(key, val string) *Context {
	c.ctx = c.ctx.Str(key, val)
	return c
}

func (c *Context) Int(key string, val int) *Context {
	c.ctx = c.ctx.Int(key, val)
	return c
}

func (c *Context) Float64(key string, val float64) *Context {
	c.ctx = c.ctx.Float64(key, val)
	return c
}

func (c *Context) Err(err error) *Context {
	c.ctx = c.ctx.Err(err)
	return c
}

func (c *Context) Logger() *Logger {
	return &Logger{zlog: c.ctx.Logger()}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

func (l *Logger) Debugf(format string, args ...any) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zlog.Error().Msgf(format, args...) }
func (l *Logger) Fatalf(format string, args ...any) { l.zlog.Fatal().Msgf(format, args...) }

// InfoWith logs at info level with a map of structured fields.
func (l *Logger) InfoWith(msg string, fields map[string]any) {
	event := l.zlog.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// ErrorWith logs an error with a map of structured fields.
func (l *Logger) ErrorWith(msg string, err error, fields map[string]any) {
	event := l.zlog.Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func timeFormat(format string) string {
	switch format {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	case "unixmicro":
		return zerolog.TimeFormatUnixMicro
	default:
		return time.RFC3339
	}
}

// Nop returns a logger that discards everything. Used by tests and as the
// fallback when components are constructed without a logger.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

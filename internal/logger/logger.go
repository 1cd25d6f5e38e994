package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// New returns a Logger for the given component. APP_ENV=dev switches to a
// human readable console format.
func New(component string) Logger {
	return NewZerologLogger(component, os.Stderr)
}

func NewZerologLogger(component string, out io.Writer) *ZerologLogger {
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

// SetLevel sets the global level; unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

// Package stdlogger bridges libraries expecting a printf style or *log.Logger
// logger onto the global zerolog logger.
package stdlogger

import (
	"bytes"
	stdlog "log"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger exposes leveled printf methods on top of zerolog.
type Logger struct {
	component string
}

// New returns a Logger tagging every event with component.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	return log.WithLevel(level).Str("component", l.component)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.event(zerolog.DebugLevel).Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.event(zerolog.InfoLevel).Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	l.event(zerolog.WarnLevel).Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.event(zerolog.ErrorLevel).Msgf(format, args...)
}

// Std returns a *log.Logger whose lines are written to zerolog at level.
func (l *Logger) Std(level zerolog.Level) *stdlog.Logger {
	return stdlog.New(levelWriter{l: l, level: level}, "", 0)
}

type levelWriter struct {
	l     *Logger
	level zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	w.l.event(w.level).Msg(string(bytes.TrimRight(p, "\n")))

	return len(p), nil
}

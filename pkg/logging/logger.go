// Package logging implements the leveled logger used by fibered.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Level represents the logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarn
	LevelError
)

const consoleTimeFormat = "15:04:05.000"

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelNotice:
		return "NOTICE"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a Level. Unknown names give LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "notice":
		return LevelNotice
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// zerolog has no notice level; notices are written at info with a marker.
func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger provides leveled logging on top of zerolog.
type Logger struct {
	level Level
	zl    zerolog.Logger
}

// New creates a console Logger on stderr with the specified minimum level.
func New(level Level) *Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}
	return NewWithWriter(cw, level)
}

// NewWithWriter creates a Logger writing JSON lines (or whatever w renders)
// to w.
func NewWithWriter(w io.Writer, level Level) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{level: level, zl: zl}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{level: LevelError + 1, zl: zerolog.Nop()}
}

// SetLevel changes the minimum logging level.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	ev := l.zl.WithLevel(level.zerolog())
	if level == LevelNotice {
		ev = ev.Bool("notice", true)
	}
	ev.Msg(fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Notice logs at notice level.
func (l *Logger) Notice(format string, args ...interface{}) {
	l.log(LevelNotice, format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// SignalReceived logs a signal picked up by the main loop.
func (l *Logger) SignalReceived(sig fmt.Stringer) {
	l.log(LevelDebug, "Signal %s received", sig)
}

// TimerFired logs a timer expiration.
func (l *Logger) TimerFired(sig fmt.Stringer) {
	l.log(LevelDebug, "Timer on %s fired", sig)
}

// WorkerStarted logs a spawned worker.
func (l *Logger) WorkerStarted(pid int) {
	l.log(LevelInfo, "Worker [%d] started", pid)
}

// ChildReaped logs a reaped child and how it ended.
func (l *Logger) ChildReaped(pid int, how string) {
	l.log(LevelInfo, "Worker [%d] %s", pid, how)
}

// Package logger is a leveled printf-style front for log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level = slog.Level

const (
	DEBUG = slog.LevelDebug
	INFO  = slog.LevelInfo
	WARN  = slog.LevelWarn
	ERROR = slog.LevelError
)

func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	}
	return INFO, false
}

// Interface is what library packages accept.
type Interface interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Logger struct {
	level *slog.LevelVar
	log   *slog.Logger
}

func New(out io.Writer, level Level) *Logger {
	if out == nil {
		out = os.Stderr
	}
	lv := new(slog.LevelVar)
	lv.Set(level)
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: lv})
	return &Logger{level: lv, log: slog.New(h)}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the process logger, at LOG_LEVEL or INFO.
func GetLogger() *Logger {
	once.Do(func() {
		level := INFO
		if l, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
			level = l
		}
		defaultLogger = New(os.Stderr, level)
	})
	return defaultLogger
}

func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Slog exposes the underlying logger for structured attributes.
func (l *Logger) Slog() *slog.Logger {
	return l.log
}

func (l *Logger) logf(level Level, format string, args ...any) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}
	l.log.Log(ctx, level, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(ERROR, format, args...) }

type nop struct{}

func (nop) Debugf(string, ...any) {}
func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}

// Nop discards everything.
func Nop() Interface { return nop{} }

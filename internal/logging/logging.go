// Package logging provides a thin leveled wrapper over the standard log
// package, matching the DEBUG-env-gated style of cmd/server/main.go in the
// teacher repository.
package logging

import (
	"log"
	"os"
)

// Level controls which messages are emitted.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
)

// Logger wraps *log.Logger with leveled helpers.
type Logger struct {
	level Level
	std   *log.Logger
}

// New creates a Logger writing to stderr via the standard logger. Debug
// logging is enabled when the DEBUG environment variable is "true", same
// as the teacher's main().
func New(prefix string) *Logger {
	level := LevelInfo
	if os.Getenv("DEBUG") == "true" {
		level = LevelDebug
	}
	return &Logger{
		level: level,
		std:   log.New(os.Stderr, prefix, log.LstdFlags),
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LevelDebug {
		l.std.Printf("[DEBUG] "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf("[INFO] "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("[WARN] "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("[ERROR] "+format, args...)
}

package logger

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ErrRecordNotFound is re-raised here so Trace implementations can recognize
// the not-found case without importing the root package.
var ErrRecordNotFound = errors.New("record not found")

// LogLevel log level
type LogLevel int

const (
	// Silent silent log level
	Silent LogLevel = iota + 1
	// Error error log level
	Error
	// Warn warn log level
	Warn
	// Info info log level
	Info
)

// Config logger config
type Config struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
	ParameterizedQueries      bool
	LogLevel                  LogLevel
}

// Interface logger interface
type Interface interface {
	LogMode(LogLevel) Interface
	Info(ctx context.Context, msg string, data ...interface{})
	Warn(ctx context.Context, msg string, data ...interface{})
	Error(ctx context.Context, msg string, data ...interface{})
	Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error)
}

// Default is the logger used when none is configured: a zerolog console
// writer at Warn, with a 200ms slow-SQL threshold.
var Default = NewZerologLoggerWithConfig(Config{
	SlowThreshold:             200 * time.Millisecond,
	LogLevel:                  Warn,
	IgnoreRecordNotFoundError: false,
})

// Discard drops everything.
var Discard = NewZerologLogger(zerolog.New(os.Stderr).Level(zerolog.Disabled), Config{LogLevel: Silent})

package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gentledepp/prettyorm/utils"
)

// ZerologLogger implements Interface using zerolog
type ZerologLogger struct {
	Logger                    zerolog.Logger
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

// NewZerologLogger creates a new logger using zerolog
func NewZerologLogger(logger zerolog.Logger, config Config) Interface {
	return &ZerologLogger{
		Logger:                    logger,
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

// NewZerologLoggerWithConfig creates a new zerolog logger with custom configuration
func NewZerologLoggerWithConfig(config Config, output ...zerolog.Context) Interface {
	var logger zerolog.Logger

	if len(output) > 0 {
		logger = output[0].Logger()
	} else {
		consoleWriter := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stdout
			w.TimeFormat = time.RFC3339
		})
		logger = zerolog.New(consoleWriter).
			Level(ZerologLevel(config.LogLevel)).
			With().
			Timestamp().
			Logger()
	}

	return NewZerologLogger(logger, config)
}

// LogMode sets the log level
func (l *ZerologLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info logs info messages
func (l *ZerologLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.event(ctx, l.Logger.Info()).Msg(fmt.Sprintf(msg, data...))
	}
}

// Warn logs warning messages
func (l *ZerologLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.event(ctx, l.Logger.Warn()).Msg(fmt.Sprintf(msg, data...))
	}
}

// Error logs error messages
func (l *ZerologLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.event(ctx, l.Logger.Error()).Msg(fmt.Sprintf(msg, data...))
	}
}

// Trace logs SQL execution details
func (l *ZerologLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	var event *zerolog.Event
	switch {
	case err != nil && l.LogLevel >= Error && (!l.IgnoreRecordNotFoundError || !errors.Is(err, ErrRecordNotFound)):
		event = l.Logger.Error().Err(err)
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= Warn:
		event = l.Logger.Warn().
			Str("slow_threshold", l.SlowThreshold.String())
	case l.LogLevel >= Info:
		event = l.Logger.Info()
	default:
		return
	}

	event = event.
		Str("duration", fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/1e6)).
		Str("sql", sql)

	if rows != -1 {
		event = event.Int64("rows", rows)
	}

	l.event(ctx, event).Msg("SQL executed")
}

func (l *ZerologLogger) event(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	event = event.Str("file", utils.FileWithLineNum())
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	return event
}

// ZerologLevel converts LogLevel to zerolog.Level
func ZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Silent:
		return zerolog.NoLevel
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	case Info:
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

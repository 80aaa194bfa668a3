package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gentledepp/prettyorm/utils"
)

// LogrusLogger implements Interface using logrus
type LogrusLogger struct {
	Logger                    *logrus.Logger
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

// NewLogrusLogger creates a new logger using logrus
func NewLogrusLogger(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{
		Logger:                    logger,
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

// LogMode sets the log level
func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info logs info messages
func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.entry(ctx).Infof(msg, data...)
	}
}

// Warn logs warning messages
func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.entry(ctx).Warnf(msg, data...)
	}
}

// Error logs error messages
func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.entry(ctx).Errorf(msg, data...)
	}
}

// Trace logs SQL execution details
func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := logrus.Fields{
		"duration": fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/1e6),
		"sql":      sql,
	}
	if rows != -1 {
		fields["rows"] = rows
	}

	entry := l.entry(ctx).WithFields(fields)

	switch {
	case err != nil && l.LogLevel >= Error && (!l.IgnoreRecordNotFoundError || !errors.Is(err, ErrRecordNotFound)):
		entry.WithError(err).Error("SQL executed")
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= Warn:
		entry.WithField("slow_threshold", l.SlowThreshold.String()).Warn("SQL executed")
	case l.LogLevel >= Info:
		entry.Info("SQL executed")
	}
}

func (l *LogrusLogger) entry(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("file", utils.FileWithLineNum())
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

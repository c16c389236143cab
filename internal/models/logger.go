package models

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gorm_logger "gorm.io/gorm/logger"
)

// logger adapts zerolog to the gorm logger interface. The log level is
// controlled globally through zerolog, LogMode is a no-op.
type logger struct {
	Logger zerolog.Logger
}

func (l *logger) LogMode(gorm_logger.LogLevel) gorm_logger.Interface {
	return l
}

func (l *logger) Info(_ context.Context, msg string, args ...interface{}) {
	l.Logger.Info().Msgf(msg, args...)
}

func (l *logger) Warn(_ context.Context, msg string, args ...interface{}) {
	l.Logger.Warn().Msgf(msg, args...)
}

func (l *logger) Error(_ context.Context, msg string, args ...interface{}) {
	l.Logger.Error().Msgf(msg, args...)
}

// Trace logs the statement and its duration. Not-found errors are
// expected during normal operation and are not logged as errors.
func (l *logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()

	event := l.Logger.Debug()
	if err != nil && !errors.Is(err, ErrResourceNotFound) {
		event = l.Logger.Error().Err(err)
	}

	event.
		Str("sql", sql).
		Int64("rows", rows).
		Dur("duration", time.Since(begin)).
		Msg("[GORM]")
}

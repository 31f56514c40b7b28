package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	defaultMaxLoggedParamLength = 256
	defaultSlowThreshold        = 200 * time.Millisecond
)

// gormLog routes gorm logs to zap and keeps post bodies out of SQL logs
type gormLog struct {
	logger               logSDK.Logger
	level                gormLogger.LogLevel
	slowThreshold        time.Duration
	maxLoggedParamLength int
}

// NewGormLogger gorm logger backed by logger
func NewGormLogger(logger logSDK.Logger) gormLogger.Interface {
	return &gormLog{
		logger:               logger,
		level:                gormLogger.Warn,
		slowThreshold:        defaultSlowThreshold,
		maxLoggedParamLength: defaultMaxLoggedParamLength,
	}
}

// LogMode returns a copy with the given level
func (l *gormLog) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLog) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormLogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormLogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLog) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormLogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed, slow, or (at Info level) every statement
func (l *gormLog) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.Error("sql",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("cost", elapsed))
	case elapsed > l.slowThreshold && l.level >= gormLogger.Warn:
		sql, rows := fc()
		l.logger.Warn("slow sql",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("cost", elapsed))
	case l.level >= gormLogger.Info:
		sql, rows := fc()
		l.logger.Debug("sql",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("cost", elapsed))
	}
}

// ParamsFilter truncates oversized parameters before gorm renders SQL for logs
func (l *gormLog) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	return sql, sanitizeLoggedSQLParams(l.maxLoggedParamLength, params...)
}

func sanitizeLoggedSQLParams(maxLen int, params ...any) []any {
	if len(params) == 0 {
		return params
	}

	filtered := make([]any, len(params))
	for idx, param := range params {
		filtered[idx] = sanitizeLoggedSQLParam(param, maxLen)
	}

	return filtered
}

// sanitizeLoggedSQLParam replaces oversized strings and bytes with a summary
func sanitizeLoggedSQLParam(param any, maxLen int) any {
	switch value := param.(type) {
	case string:
		if len(value) > maxLen {
			return fmt.Sprintf("<string:len=%d,truncated>", len(value))
		}
		return value
	case []byte:
		if len(value) > maxLen {
			return fmt.Sprintf("<bytes:len=%d,truncated>", len(value))
		}
		return value
	default:
		return param
	}
}

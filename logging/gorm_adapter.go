package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM output into slog. Queries are logged at debug, slow
// queries and query errors at warn.
type GormLogger struct {
	log           *slog.Logger
	slowThreshold time.Duration
}

// NewGormLogger wraps l; a zero slowThreshold disables slow query warnings.
func NewGormLogger(l *slog.Logger, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{log: OrDiscard(l).With("component", "gorm"), slowThreshold: slowThreshold}
}

// LogMode is a no-op; the slog level decides what is kept.
func (g *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return g
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.log.DebugContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.log.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.log.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		g.log.WarnContext(ctx, "query error", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds(), "error", err)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold:
		g.log.WarnContext(ctx, "slow query", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	default:
		g.log.DebugContext(ctx, "sql query", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	}
}

package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("error is logged with sql", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), sqlFn("UPDATE stock_units SET quantity = quantity - 1", 0), errors.New("deadlock"))

		entries := logs.FilterMessage("sql error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		assert.Equal(t, "gorm", entries[0].LoggerName)
		assert.Contains(t, entries[0].ContextMap()["sql"], "stock_units")
	})

	t.Run("record not found is ignored by default", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, logs.Len())
	})

	t.Run("record not found can be reported", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn, WithIgnoreRecordNotFoundError(false))
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow statement logs warn", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
		gl.Trace(ctx, time.Now().Add(-50*time.Millisecond), sqlFn("SELECT * FROM ledger_entries", 3), nil)

		entries := logs.FilterMessage("slow sql").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("normal statements only at info level", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		assert.Zero(t, logs.Len())

		gl, logs = newObservedGorm(gormlogger.Info)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), nil)
		entries := logs.FilterMessage("sql").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	})

	t.Run("silent drops everything", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Silent)
		gl.Trace(ctx, time.Now(), sqlFn("SELECT 1", 1), errors.New("boom"))
		assert.Zero(t, logs.Len())
	})

	t.Run("request and tenant ids are attached", func(t *testing.T) {
		gl, logs := newObservedGorm(gormlogger.Info)
		rctx, _ := WithRequestID(ctx, zap.NewNop(), "req-9")
		rctx, _ = WithTenantID(rctx, zap.NewNop(), "tenant-b")
		gl.Trace(rctx, time.Now(), sqlFn("SELECT 1", 1), nil)

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "req-9", fields["request_id"])
		assert.Equal(t, "tenant-b", fields["tenant_id"])
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, logs := newObservedGorm(gormlogger.Silent)
	loud := gl.LogMode(gormlogger.Info)

	loud.Info(context.Background(), "migrated %d tables", 9)
	gl.Info(context.Background(), "suppressed")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "migrated 9 tables", logs.All()[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}

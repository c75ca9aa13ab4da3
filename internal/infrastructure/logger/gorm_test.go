package logger

import (
	"context"
	"errors"
	"strings"
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

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

const orderLoadSQL = `SELECT * FROM "orders" WHERE id = $1`

func TestNewGormLogger(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		gl, _ := newObservedGormLogger(gormlogger.Info)
		assert.Equal(t, gormlogger.Info, gl.logLevel)
		assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
		assert.True(t, gl.ignoreRecordNotFoundError)
	})

	t.Run("options", func(t *testing.T) {
		gl, _ := newObservedGormLogger(gormlogger.Info,
			WithSlowThreshold(500*time.Millisecond),
			WithIgnoreRecordNotFoundError(false),
		)
		assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
		assert.False(t, gl.ignoreRecordNotFoundError)
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)
	clone := gl.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	cloneGl, ok := clone.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloneGl.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	t.Run("info logs at info level", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		gl.Info(context.Background(), "migrated %d tables", 3)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "migrated 3 tables", logs[0].Message)
	})

	t.Run("silent suppresses everything", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Info(context.Background(), "migrated")
		gl.Warn(context.Background(), "slow")
		gl.Error(context.Background(), "broken")
		assert.Empty(t, recorded.All())
	})

	t.Run("warn and error pass their levels through", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		gl.Warn(context.Background(), "checkpoint took %v", time.Second)
		gl.Error(context.Background(), "constraint violated")

		logs := recorded.All()
		require.Len(t, logs, 2)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
		assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
	})
}

func TestGormLogger_Trace(t *testing.T) {
	query := func(sql string, rows int64) func() (string, int64) {
		return func() (string, int64) { return sql, rows }
	}

	t.Run("failed statement logs at error with the sql", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query(orderLoadSQL, 0), errors.New("connection reset"))

		logs := recorded.FilterMessage("sql error").All()
		require.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, orderLoadSQL, fields["sql"])
	})

	t.Run("record not found stays quiet by default", func(t *testing.T) {
		// Lookups by order number miss routinely; that is not an error line
		gl, recorded := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), query(orderLoadSQL, 0), gormlogger.ErrRecordNotFound)
		assert.Empty(t, recorded.All())
	})

	t.Run("record not found logs when configured", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(false))
		gl.Trace(context.Background(), time.Now(), query(orderLoadSQL, 0), gormlogger.ErrRecordNotFound)
		assert.Len(t, recorded.FilterMessage("sql error").All(), 1)
	})

	t.Run("statement over the threshold warns", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		gl.Trace(context.Background(), time.Now().Add(-time.Second), query(orderLoadSQL, 12), nil)

		logs := recorded.FilterMessage("slow sql").All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("ordinary statement logs at debug", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), query(orderLoadSQL, 1), nil)

		logs := recorded.FilterMessage("sql").All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.DebugLevel, logs[0].Level)
		assert.EqualValues(t, 1, logs[0].ContextMap()["rows"])
	})

	t.Run("silent traces nothing", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query(orderLoadSQL, 1), nil)
		assert.Empty(t, recorded.All())
	})

	t.Run("carries the request id from the context", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-7f3a")
		gl.Trace(ctx, time.Now(), query(orderLoadSQL, 1), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "req-7f3a", logs[0].ContextMap()["request_id"])
	})

	t.Run("oversized statements are truncated", func(t *testing.T) {
		// A bulk audit-entry insert can run to many kilobytes of values
		gl, recorded := newObservedGormLogger(gormlogger.Info)
		huge := `INSERT INTO "audit_entries" VALUES ` + strings.Repeat("(x),", 4096)
		gl.Trace(context.Background(), time.Now(), query(huge, 4096), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		logged, ok := logs[0].ContextMap()["sql"].(string)
		require.True(t, ok)
		assert.LessOrEqual(t, len(logged), maxLoggedSQL+3)
		assert.True(t, strings.HasSuffix(logged, "..."))
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}

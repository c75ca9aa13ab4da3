package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "reconcile", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3*time.Second, cfg.TimeSource.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignExpiry)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, 100, cfg.HTTP.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.False(t, cfg.Event.UseRedisStream)
	assert.Equal(t, "reconcile:stock-requests", cfg.Event.StreamName)
}

func TestLoad_StockStreamIndependentOfIdempotency(t *testing.T) {
	// The durable stock stream and the Redis idempotency store share a
	// connection but are switched independently.
	t.Setenv("RECONCILE_EVENT_USE_REDIS_STREAM", "true")
	t.Setenv("RECONCILE_EVENT_STREAM_NAME", "warehouse:stock-requests")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Event.UseRedisStream)
	assert.False(t, cfg.Idempotency.UseRedis)
	assert.Equal(t, "warehouse:stock-requests", cfg.Event.StreamName)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RECONCILE_DATABASE_HOST", "db.internal")
	t.Setenv("RECONCILE_APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestValidate(t *testing.T) {
	t.Run("rejects idle conns exceeding open conns", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Database.MaxIdleConns = 50
		cfg.Database.MaxOpenConns = 10

		err := cfg.validate()
		assert.Error(t, err)
	})

	t.Run("production requires a database password", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		cfg.Database.SSLMode = "require"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("production rejects wildcard CORS origin", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.HTTP.CORSAllowOrigins = []string{"*"}

		err := cfg.validate()
		assert.Error(t, err)
	})

	t.Run("rejects out-of-range sampling ratio", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Telemetry.SamplingRatio = 1.5

		err := cfg.validate()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "reconcile",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/reconcile/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStreamAppender appends entries to a Redis stream. The inventory
// collaborator consumes the stream with a consumer group, so entries
// survive restarts on either side.
type RedisStreamAppender struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamAppender creates a stream appender with its own client
func NewRedisStreamAppender(cfg config.RedisConfig) (*RedisStreamAppender, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStreamAppender{client: client, maxLen: 100000}, nil
}

// NewRedisStreamAppenderWithClient creates a stream appender sharing an
// existing Redis client
func NewRedisStreamAppenderWithClient(client *redis.Client) *RedisStreamAppender {
	return &RedisStreamAppender{client: client, maxLen: 100000}
}

// Append adds an entry to the stream, trimming it approximately to maxLen
func (a *RedisStreamAppender) Append(ctx context.Context, stream string, values map[string]interface{}) error {
	err := a.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: a.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd to %s: %w", stream, err)
	}
	return nil
}

// Close closes the underlying Redis client
func (a *RedisStreamAppender) Close() error {
	return a.client.Close()
}

// LogStreamAppender writes stream entries to the log instead of a broker.
// Used in development when Redis is not configured.
type LogStreamAppender struct {
	logger *zap.Logger
}

// NewLogStreamAppender creates a log-backed stream appender
func NewLogStreamAppender(logger *zap.Logger) *LogStreamAppender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogStreamAppender{logger: logger}
}

// Append logs the entry that would have been appended
func (a *LogStreamAppender) Append(_ context.Context, stream string, values map[string]interface{}) error {
	a.logger.Info("stock request (no stream configured)",
		zap.String("stream", stream),
		zap.Any("values", values),
	)
	return nil
}

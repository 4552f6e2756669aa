package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectOption tunes Connect.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	logger *slog.Logger
}

// WithLogger reports failed attempts through logger.
func WithLogger(logger *slog.Logger) ConnectOption {
	return func(o *connectOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Connect parses cfg.ConnectionURL and pings the server until it answers,
// giving up after cfg.RetryAttempts tries or when ctx (bounded by cfg.ConnectTimeout) ends.
func Connect(ctx context.Context, cfg Config, opts ...ConnectOption) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	o := connectOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	connOpts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(connOpts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		o.logger.WarnContext(ctx, "redis not ready",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.String("error", lastErr.Error()),
		)

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDriver stores signed records in Redis and lets the server expire them.
type RedisDriver struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	signer Signer
}

func NewRedisDriver(client redis.UniversalClient, prefix string, ttl time.Duration, signer Signer) *RedisDriver {
	return &RedisDriver{client: client, prefix: prefix, ttl: ttl, signer: signer}
}

func (d *RedisDriver) key(id string) string {
	return d.prefix + id
}

func (d *RedisDriver) Read(ctx context.Context, id string) (string, bool, error) {
	raw, err := d.client.Get(ctx, d.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	data, err := d.signer.Unsign(raw, id)
	if err != nil {
		return "", false, nil
	}
	return data, true, nil
}

// Write stores the record with the configured TTL. A zero TTL keeps it forever.
func (d *RedisDriver) Write(ctx context.Context, id, data string) error {
	if isEmptyPayload(data) {
		return d.Destroy(ctx, id)
	}

	signed, err := d.signer.Sign(data, id)
	if err != nil {
		return err
	}
	return d.client.Set(ctx, d.key(id), signed, d.ttl).Err()
}

func (d *RedisDriver) Destroy(ctx context.Context, id string) error {
	return d.client.Del(ctx, d.key(id)).Err()
}

// Touch resets the key TTL. Missing keys are left alone by Redis.
func (d *RedisDriver) Touch(ctx context.Context, id string) error {
	if d.ttl <= 0 {
		return nil
	}
	return d.client.Expire(ctx, d.key(id), d.ttl).Err()
}

package redis

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("redis.empty_url")
	ErrFailedToParseRedisConnString = errors.New("redis.invalid_url")
	ErrRedisNotReady                = errors.New("redis.not_ready")
	ErrHealthcheckFailed            = errors.New("redis.unhealthy")
)

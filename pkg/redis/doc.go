// Package redis connects the session server to Redis.
//
// Connect retries the initial ping according to Config and returns a ready
// go-redis client; the session package's redis driver stores records through it.
// Healthcheck wraps a client into a check for readiness endpoints.
//
//	client, err := redis.Connect(ctx, cfg, redis.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Errors are joined with the sentinels ErrRedisNotReady, ErrFailedToParseRedisConnString
// and ErrHealthcheckFailed so callers can match them with errors.Is.
package redis

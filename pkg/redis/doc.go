// Package redis connects to Redis with retries and exposes a ping health check.
// It wraps github.com/redis/go-redis/v9; the queue package builds its Redis task
// storage on the client returned by Connect.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Config is populated from the environment (REDIS_URL, REDIS_RETRY_ATTEMPTS, ...)
// with github.com/caarlos0/env.
package redis

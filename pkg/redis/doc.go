// Package redis connects to Redis with go-redis and exposes a readiness check.
//
// The client backs the shared rate-limit counters of ratelimit.RedisStore so
// that every instance enforces the same window.
//
//	client, err := redis.Connect(ctx, cfg, redis.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store, err := ratelimit.NewRedisStore(client)
package redis

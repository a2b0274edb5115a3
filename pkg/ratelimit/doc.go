// Package ratelimit guards public write endpoints with a keyed fixed-window
// counter and throttles in-process work with a token bucket.
//
// # Fixed window
//
// FixedWindow admits at most Limit requests per key per Window. The first
// request for a key, or the first request after its window elapsed, starts a
// new window with a count of one. Later requests increment the count while it
// is below the limit and are rejected without incrementing once it is reached.
//
// The reset-or-increment step is a single atomic Store operation. MemoryStore
// performs it under one mutex and sweeps expired records in the background.
// RedisStore runs it as a Lua script so several service instances share one
// counter per key.
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter, _ := ratelimit.NewFixedWindow(store, 10, time.Hour)
//	if !limiter.Check(ctx, clientIP) {
//	    // reject
//	}
//
// Middleware wires the limiter into an HTTP stack, keyed by client IP by
// default, and answers 429 Too Many Requests with a Retry-After header.
//
// # Token bucket
//
// TokenBucket is a local throttle used to cap throughput of background work.
// Wait blocks until a token is available or the context is done.
package ratelimit

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript runs the reset-or-increment step on the Redis server clock.
// Reply: {admitted, window_start_ms, count}.
var consumeScript = redis.NewScript(`
local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local start = redis.call('HGET', KEYS[1], 'start')
if (not start) or (now >= tonumber(start) + window) then
	redis.call('HSET', KEYS[1], 'start', now, 'count', 1)
	redis.call('PEXPIRE', KEYS[1], window)
	return {1, now, 1}
end

local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if count >= limit then
	return {0, tonumber(start), count}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, tonumber(start), count}
`)

// RedisStore implements Store on Redis so that every service instance shares
// one counter per key. Keys expire with their window.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the prefix prepended to every key. Defaults to "ratelimit:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a store over client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	s := &RedisStore{client: client, prefix: "ratelimit:"}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RedisStore) Consume(ctx context.Context, key string, limit int, window time.Duration) (Record, bool, error) {
	reply, err := consumeScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to consume rate limit slot for %q: %w", key, err)
	}
	if len(reply) != 3 {
		return Record{}, false, fmt.Errorf("%w: consume returned %d values", ErrUnexpectedReply, len(reply))
	}

	return Record{
		Key:         key,
		WindowStart: time.UnixMilli(reply[1]),
		Count:       int(reply[2]),
	}, reply[0] == 1, nil
}

func (s *RedisStore) Get(ctx context.Context, key string, window time.Duration) (Record, bool, error) {
	vals, err := s.client.HMGet(ctx, s.prefix+key, "start", "count").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("failed to read rate limit window for %q: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return Record{}, false, nil
	}

	start, err := strconv.ParseInt(fmt.Sprint(vals[0]), 10, 64)
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: window start %v", ErrUnexpectedReply, vals[0])
	}
	count, err := strconv.Atoi(fmt.Sprint(vals[1]))
	if err != nil {
		return Record{}, false, fmt.Errorf("%w: count %v", ErrUnexpectedReply, vals[1])
	}

	rec := Record{Key: key, WindowStart: time.UnixMilli(start), Count: count}
	if !time.Now().Before(rec.WindowStart.Add(window)) {
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete rate limit window for %q: %w", key, err)
	}
	return nil
}

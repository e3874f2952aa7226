package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each session as a Redis hash with a sliding expiry.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Redis-backed Store.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (s *Redis) key(sid string) string {
	return s.prefix + sid
}

// Get returns all fields of the session hash.
func (s *Redis) Get(ctx context.Context, sid string) (Values, error) {
	if sid == "" {
		return nil, ErrIDRequired
	}

	result, err := s.client.HGetAll(ctx, s.key(sid)).Result()
	if err != nil {
		return nil, err
	}

	return Values(result), nil
}

// Set writes the fields and refreshes the ttl in a single transaction.
func (s *Redis) Set(ctx context.Context, sid string, values Values) error {
	if sid == "" {
		return ErrIDRequired
	}
	if len(values) == 0 {
		return nil
	}

	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(sid), fields)
		pipe.Expire(ctx, s.key(sid), s.ttl)
		return nil
	})
	return err
}

// incrIfScript returns -1 when the guard field no longer holds the expected value.
var incrIfScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) ~= ARGV[2] then
	return -1
end
local n = redis.call('HINCRBY', KEYS[1], ARGV[3], 1)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return n
`)

// IncrIf runs the guard check and HINCRBY in one script so concurrent
// requests never lose an increment or revive a flushed session.
func (s *Redis) IncrIf(ctx context.Context, sid, key, guard, want string) (int64, bool, error) {
	if sid == "" {
		return 0, false, ErrIDRequired
	}

	n, err := incrIfScript.Run(ctx, s.client, []string{s.key(sid)}, guard, want, key, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}

	return n, true, nil
}

// Flush deletes the session hash.
func (s *Redis) Flush(ctx context.Context, sid string) error {
	if sid == "" {
		return ErrIDRequired
	}

	return s.client.Del(ctx, s.key(sid)).Err()
}

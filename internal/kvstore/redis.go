package kvstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// acquireScript performs the seat and user index conditional sets as one
// step.  KEYS[1] is the seat lock, KEYS[2] the user index.  ARGV[1] is the
// holder and ARGV[2] the lease in milliseconds.  The reply is
// {outcome, ttl_ms}; outcome codes match AcquireOutcome.
var acquireScript = redis.NewScript(`
	local holder = redis.call('GET', KEYS[1])
	if holder then
		if holder == ARGV[1] then
			return {1, redis.call('PTTL', KEYS[1])}
		end
		return {2, redis.call('PTTL', KEYS[1])}
	end

	local held = redis.call('GET', KEYS[2])
	if held and held ~= KEYS[1] then
		return {3, redis.call('PTTL', KEYS[2])}
	end

	redis.call('SET', KEYS[2], KEYS[1], 'PX', ARGV[2])
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return {0, tonumber(ARGV[2])}
`)

var deleteIfEqualScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// appendIfHolderScript keeps the ledger a plain list (LPUSH) while refusing
// duplicates and refusing a value whose lock at KEYS[2] belongs to someone
// else.  An absent lock does not block the append.  Reply codes match
// AppendOutcome.
var appendIfHolderScript = redis.NewScript(`
	local items = redis.call('LRANGE', KEYS[1], 0, -1)
	for _, v in ipairs(items) do
		if v == ARGV[1] then
			return 1
		end
	end
	local holder = redis.call('GET', KEYS[2])
	if holder and holder ~= ARGV[1] then
		return 2
	end
	redis.call('LPUSH', KEYS[1], ARGV[1])
	return 0
`)

// RedisStore implements Store on top of a pooled go-redis client.  It owns
// the client: Close releases the pool.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close shuts down the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return v, true, nil
}

func (s *RedisStore) RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, false, unavailable("pttl", err)
	}
	// go-redis passes -2 (missing) and -1 (no expiry) through unscaled.
	switch d {
	case -2:
		return 0, false, nil
	case -1:
		return -1, true, nil
	}
	return d, true, nil
}

func (s *RedisStore) DeleteIfEqual(ctx context.Context, key, value string) (bool, error) {
	n, err := deleteIfEqualScript.Run(ctx, s.client, []string{key}, value).Int64()
	if err != nil {
		return false, unavailable("delete", err)
	}
	return n == 1, nil
}

func (s *RedisStore) AcquirePair(ctx context.Context, seatKey, userKey, holder string, ttl time.Duration) (AcquireOutcome, time.Duration, error) {
	vals, err := acquireScript.Run(ctx, s.client, []string{seatKey, userKey}, holder, ttl.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, unavailable("acquire", err)
	}
	if len(vals) != 2 {
		return 0, 0, unavailable("acquire", fmt.Errorf("unexpected script reply %#v", vals))
	}
	outcome := AcquireOutcome(asInt64(vals[0]))
	if outcome < Acquired || outcome > HolderBusy {
		return 0, 0, unavailable("acquire", fmt.Errorf("unexpected outcome %v", vals[0]))
	}
	return outcome, time.Duration(asInt64(vals[1])) * time.Millisecond, nil
}

func (s *RedisStore) AppendIfHolder(ctx context.Context, listKey, value, lockKey string) (AppendOutcome, error) {
	n, err := appendIfHolderScript.Run(ctx, s.client, []string{listKey, lockKey}, value).Int64()
	if err != nil {
		return 0, unavailable("append", err)
	}
	outcome := AppendOutcome(n)
	if outcome < Appended || outcome > LockedByOther {
		return 0, unavailable("append", fmt.Errorf("unexpected outcome %d", n))
	}
	return outcome, nil
}

func (s *RedisStore) ListContains(ctx context.Context, listKey, value string) (bool, error) {
	items, err := s.ListMembers(ctx, listKey)
	if err != nil {
		return false, err
	}
	return slices.Contains(items, value), nil
}

func (s *RedisStore) ListMembers(ctx context.Context, listKey string) ([]string, error) {
	items, err := s.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, unavailable("lrange", err)
	}
	return items, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

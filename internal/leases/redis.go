package leases

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "agent_lease:"

// releaseScript deletes the lease only when the caller still owns it, so a
// late callback cannot drop a lease that has already been taken over.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisStore keeps leases in Redis. Expiry is handled by Redis key TTL, which
// also survives a process restart.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Acquire(ctx context.Context, agentID, callSid string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	ok, err := s.rdb.SetNX(ctx, keyPrefix+agentID, callSid, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		// Re-acquire by the same call is fine (e.g. a retried webhook).
		cur, err := s.rdb.Get(ctx, keyPrefix+agentID).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur == callSid {
			return nil
		}
		return ErrNotAcquired
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, agentID, callSid string) error {
	return releaseScript.Run(ctx, s.rdb, []string{keyPrefix + agentID}, callSid).Err()
}

func (s *RedisStore) Owner(ctx context.Context, agentID string) (string, error) {
	v, err := s.rdb.Get(ctx, keyPrefix+agentID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

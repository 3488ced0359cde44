package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "gophauth:lock:"
	retryInterval      = 25 * time.Millisecond
	releaseTimeout     = 2 * time.Second
)

// ErrNotAcquired is returned when ctx ends before the lock is obtained.
var ErrNotAcquired = errors.New("lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance talking to one Redis.
// A held lock expires after ttl even if its holder dies.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: prefix}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + key
	token, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_ = releaseScript.Run(rctx, l.client, []string{redisKey}, token).Err()
		})
	}, nil
}

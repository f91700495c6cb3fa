// Package redis provides a distributed parking Locker on top of Redis so that
// several API replicas sharing one PostgreSQL store serialize check-ins per
// plate and check-outs per session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mall-parking/internal/parking"
)

const keyPrefix = "mall-parking:lock:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

var errLockHeld = errors.New("lock held")

type Config struct {
	Addr     string
	Password string
	DB       int
}

type Locker struct {
	client *redis.Client
}

var _ parking.Locker = (*Locker)(nil)

// Open connects and pings Redis.
func Open(ctx context.Context, cfg Config) (*Locker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Locker{client: client}, nil
}

// Lock takes key for ttl. A contended key is retried with exponential backoff
// for at most ttl before giving up with ErrLockTimeout.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, func() (bool, error) {
		ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return false, backoff.Permanent(err)
		}
		if !ok {
			return false, errLockHeld
		}
		return true, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxElapsedTime(ttl))
	if err != nil {
		if errors.Is(err, errLockHeld) || ctx.Err() != nil {
			return nil, fmt.Errorf("key %s: %w", key, parking.ErrLockTimeout)
		}
		return nil, err
	}

	return sync.OnceFunc(func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}), nil
}

func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *Locker) Close() error {
	return l.client.Close()
}

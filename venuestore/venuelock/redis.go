package venuelock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisTTL        = 30 * time.Second
	defaultRedisRetryEvery = 25 * time.Millisecond
	defaultRedisKeyPrefix  = "venuestore:lock:"
)

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds one expiring Redis key per locked venue.
// A lease that outlives its TTL is lost, and its Release reports ErrLockNotHeld.
type RedisLocker struct {
	client     redis.Cmdable
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker) error

// WithTTL sets how long a lease survives without being released.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) error {
		if ttl <= 0 {
			return errors.Join(ErrInvalidLockOption, fmt.Errorf("ttl %s", ttl))
		}

		l.ttl = ttl

		return nil
	}
}

// WithRetryInterval sets how often a blocked Acquire polls.
func WithRetryInterval(interval time.Duration) RedisOption {
	return func(l *RedisLocker) error {
		if interval <= 0 {
			return errors.Join(ErrInvalidLockOption, fmt.Errorf("retry interval %s", interval))
		}

		l.retryEvery = interval

		return nil
	}
}

// WithKeyPrefix namespaces the lock keys.
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) error {
		l.prefix = prefix
		return nil
	}
}

// NewRedisLocker creates a RedisLocker on client.
func NewRedisLocker(client redis.Cmdable, options ...RedisOption) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.Join(ErrInvalidLockOption, errors.New("redis client must not be nil"))
	}

	l := &RedisLocker{
		client:     client,
		prefix:     defaultRedisKeyPrefix,
		ttl:        defaultRedisTTL,
		retryEvery: defaultRedisRetryEvery,
	}

	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Acquire polls SET NX until it wins the key or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lease, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(ErrAcquireCanceled, ctxErr)
			}

			return nil, fmt.Errorf("acquire %s: %w", redisKey, err)
		}

		if ok {
			return &redisLease{client: l.client, key: key, redisKey: redisKey, token: token}, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, errors.Join(ErrAcquireCanceled, ctx.Err())
		}
	}
}

type redisLease struct {
	client   redis.Cmdable
	key      string
	redisKey string
	token    string
}

func (l *redisLease) Key() string {
	return l.key
}

func (l *redisLease) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.redisKey}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", l.redisKey, err)
	}

	if deleted == 0 {
		return ErrLockNotHeld
	}

	return nil
}

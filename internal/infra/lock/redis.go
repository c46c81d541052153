package lock

import (
	"context"
	"time"

	domainerrors "cleancity/internal/domain/errors"
	"cleancity/internal/domain/service"
	"cleancity/internal/errors"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const defaultRetryInterval = 25 * time.Millisecond

// releaseScript deletes the key only while it still holds our token, so an
// expired lock that someone else re-acquired is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every replica of the service.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a distributed locker.
func NewRedisLocker(client *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
		retry:  defaultRetryInterval,
	}
}

// Lock polls SET NX until it wins, the wait budget runs out or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, allotmentID uuid.UUID) (service.UnlockFunc, error) {
	key := l.prefix + allotmentID.String()
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "redis lock %s", key)
		}
		if ok {
			return func(releaseCtx context.Context) error {
				if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
					return errors.Wrapf(err, "redis unlock %s", key)
				}

				return nil
			}, nil
		}

		if !time.Now().Before(deadline) {
			return nil, domainerrors.ErrAllotmentBusy.WithDetails("allotment " + allotmentID.String())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

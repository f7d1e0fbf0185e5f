package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/bank-teller/internal/core/ports"
	"github.com/99minutos/bank-teller/internal/infrastructure/lock"
)

const (
	defaultLockTTL    = 10 * time.Second
	lockRetryInterval = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AccountLocker is a distributed AccountLocker built on SET NX PX.
// Key format: teller:lock:account:<id>
type AccountLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewAccountLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *AccountLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &AccountLocker{client: client, ttl: ttl, log: log}
}

var _ ports.AccountLocker = (*AccountLocker)(nil)

// Lock takes every id in ascending order, retrying each until ctx is done.
// On failure the ids already taken are released.
func (l *AccountLocker) Lock(ctx context.Context, ids ...int64) (func(), error) {
	token := uuid.NewString()
	held := make([]string, 0, len(ids))

	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := releaseScript.Run(rctx, l.client, []string{held[i]}, token).Err(); err != nil {
				l.log.Error().Err(err).Str("key", held[i]).Msg("failed to release account lock")
			}
		}
	}

	for _, id := range lock.Order(ids) {
		key := accountLockKey(id)
		if err := l.acquire(ctx, key, token); err != nil {
			release()
			return nil, fmt.Errorf("lock account %d: %w", id, err)
		}
		held = append(held, key)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		release()
	}, nil
}

func (l *AccountLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

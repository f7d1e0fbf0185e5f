// Package redis holds the Redis-backed coordination for the teller: session
// records and per-account locks shared between replicas.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	keyPrefix      = "teller"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	DB       int
	Password string
	Timeout  time.Duration
}

// Connect opens a client and pings it once. Command timeouts follow
// cfg.Timeout so a stalled Redis cannot hold an account lock attempt forever.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		Password:     cfg.Password,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

func sessionKey(id string) string {
	return key("session", id)
}

func accountLockKey(id int64) string {
	return key("lock", "account", strconv.FormatInt(id, 10))
}

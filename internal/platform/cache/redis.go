package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// Options configures the shared Redis connection.
type Options struct {
	Addr        string
	PingTimeout time.Duration
}

// New creates a Redis client and verifies it answers a ping. The client is
// returned even when the ping fails so callers may decide to run uncached.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr})

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// QueueOpts returns the asynq connection settings for the same Redis.
func QueueOpts(opts Options) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: opts.Addr}
}

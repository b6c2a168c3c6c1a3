package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect establishes the Redis connection backing the run snapshot
// cache and the run_events pub/sub channel.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

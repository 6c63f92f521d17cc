package queue

import (
	"context"
	"fmt"
	"time"

	"placement-portal/internal/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient owns the connection shared by the job queues and sessions.
type RedisClient struct {
	client *redis.Client
	queues []string
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", cfg.RedisAddr(), err)
	}

	return &RedisClient{
		client: rdb,
		queues: []string{
			cfg.Redis.MirrorQueue,
			cfg.Redis.MirrorQueue + cfg.Redis.DLQSuffix,
			cfg.Redis.ImportQueue,
			cfg.Redis.ImportQueue + cfg.Redis.DLQSuffix,
		},
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// QueueDepths reports the backlog of every job queue and its dead-letter
// list, read in one pipelined round trip.
func (r *RedisClient) QueueDepths(ctx context.Context) (map[string]int64, error) {
	return queueDepths(ctx, r.client, r.queues)
}

func queueDepths(ctx context.Context, client redis.Cmdable, queues []string) (map[string]int64, error) {
	cmds := make([]*redis.IntCmd, len(queues))
	_, err := client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range queues {
			cmds[i] = pipe.LLen(ctx, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read queue depths: %w", err)
	}

	depths := make(map[string]int64, len(queues))
	for i, name := range queues {
		depths[name] = cmds[i].Val()
	}
	return depths, nil
}

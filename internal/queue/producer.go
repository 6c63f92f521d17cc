package queue

import (
	"context"
	"encoding/json"

	"placement-portal/internal/config"
	"placement-portal/internal/model"

	"github.com/go-redis/redis/v8"
)

type Producer struct {
	client *redis.Client
	cfg    *config.Config
}

func NewProducer(redisClient *RedisClient, cfg *config.Config) *Producer {
	return &Producer{
		client: redisClient.Client(),
		cfg:    cfg,
	}
}

func (p *Producer) EnqueueMirrorJob(ctx context.Context, job model.MirrorJob) error {
	return p.push(ctx, p.cfg.Redis.MirrorQueue, job)
}

func (p *Producer) EnqueueImportJob(ctx context.Context, job model.ImportJob) error {
	return p.push(ctx, p.cfg.Redis.ImportQueue, job)
}

func (p *Producer) push(ctx context.Context, queueName string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, queueName, data).Err()
}

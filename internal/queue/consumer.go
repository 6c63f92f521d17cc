package queue

import (
	"context"
	"time"

	"placement-portal/internal/config"
	"placement-portal/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

type Consumer struct {
	client *redis.Client
	cfg    *config.Config
	log    zerolog.Logger
}

type MessageHandler func(ctx context.Context, data []byte) error

func NewConsumer(redisClient *RedisClient, cfg *config.Config) *Consumer {
	return &Consumer{
		client: redisClient.Client(),
		cfg:    cfg,
		log:    logger.Component("queue"),
	}
}

func (c *Consumer) ConsumeMirrorQueue(ctx context.Context, handler MessageHandler) error {
	return c.consume(ctx, c.cfg.Redis.MirrorQueue, handler)
}

func (c *Consumer) ConsumeImportQueue(ctx context.Context, handler MessageHandler) error {
	return c.consume(ctx, c.cfg.Redis.ImportQueue, handler)
}

func (c *Consumer) consume(ctx context.Context, queueName string, handler MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			result, err := c.client.BRPop(ctx, 5*time.Second, queueName).Result()
			if err != nil {
				if err == redis.Nil {
					continue // Timeout, continue polling
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.Error().Err(err).Str("queue", queueName).Msg("Failed to consume message")
				time.Sleep(time.Second)
				continue
			}

			if len(result) < 2 {
				continue
			}

			message := result[1]
			if err := handler(ctx, []byte(message)); err != nil {
				// the message is already off the queue, so neither path may
				// use the cancelled context
				detached := context.WithoutCancel(ctx)
				if ctx.Err() != nil {
					c.Requeue(detached, queueName, []byte(message))
					return ctx.Err()
				}
				c.log.Error().Err(err).Str("queue", queueName).Msg("Failed to process message")
				c.DeadLetter(detached, queueName, []byte(message))
			}
		}
	}
}

// DeadLetter moves a message that could not be processed to the queue's DLQ.
// Workers call it for jobs that fail after being handed to their pool.
func (c *Consumer) DeadLetter(ctx context.Context, queueName string, message []byte) {
	dlqName := queueName + c.cfg.Redis.DLQSuffix
	if err := c.client.LPush(ctx, dlqName, message).Err(); err != nil {
		c.log.Error().Err(err).Str("dlq", dlqName).Msg("Failed to move message to DLQ")
	}
}

// Requeue puts a message that was popped but never accepted back at the
// consuming end of its queue, so the next BRPOP returns it first.
func (c *Consumer) Requeue(ctx context.Context, queueName string, message []byte) {
	if err := c.client.RPush(ctx, queueName, message).Err(); err != nil {
		c.log.Error().Err(err).Str("queue", queueName).Msg("Failed to requeue message")
		return
	}
	c.log.Info().Str("queue", queueName).Msg("Requeued message during shutdown")
}

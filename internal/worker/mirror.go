package worker

import (
	"context"
	"encoding/json"

	"placement-portal/internal/config"
	"placement-portal/internal/db"
	"placement-portal/internal/logger"
	"placement-portal/internal/mirror"
	"placement-portal/internal/model"
	"placement-portal/internal/queue"

	"github.com/rs/zerolog"
)

type MirrorProcessor interface {
	ProcessMirrorJob(ctx context.Context, job model.MirrorJob) error
}

// DeadLetterer parks messages whose job failed after being accepted.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, queueName string, message []byte)
}

type MirrorWorker struct {
	cfg        *config.Config
	processor  MirrorProcessor
	consumer   *queue.Consumer
	dlq        DeadLetterer
	workerPool *WorkerPool
	log        zerolog.Logger
}

func NewMirrorWorker(
	cfg *config.Config,
	repo db.Repository,
	redisClient *queue.RedisClient,
) *MirrorWorker {
	consumer := queue.NewConsumer(redisClient, cfg)
	return &MirrorWorker{
		cfg:        cfg,
		processor:  mirror.NewService(cfg, repo),
		consumer:   consumer,
		dlq:        consumer,
		workerPool: NewWorkerPool(cfg.Workers.Mirror.Count),
		log:        logger.Component("mirror_worker"),
	}
}

func (w *MirrorWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting mirror worker")

	w.workerPool.Start(ctx)

	return w.consumer.ConsumeMirrorQueue(ctx, w.handleMessage)
}

func (w *MirrorWorker) Stop() {
	w.log.Info().Msg("Stopping mirror worker")
	w.workerPool.Stop()
}

func (w *MirrorWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.MirrorJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal mirror job")
		return err
	}

	w.log.Info().Str("listing_id", job.ListingID).Msg("Processing mirror job")

	return w.workerPool.Submit(ctx, func(ctx context.Context) error {
		if err := w.processor.ProcessMirrorJob(ctx, job); err != nil {
			w.dlq.DeadLetter(context.WithoutCancel(ctx), w.cfg.Redis.MirrorQueue, data)
			return err
		}
		return nil
	})
}

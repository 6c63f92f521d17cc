package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"placement-portal/internal/config"
	"placement-portal/internal/db"
	"placement-portal/internal/excel"
	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/internal/queue"
	"placement-portal/internal/storage"

	"github.com/rs/zerolog"
)

// ImportStore is the part of the repository an import writes to.
type ImportStore interface {
	CreateListing(ctx context.Context, listing *model.Listing) error
	UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, importedCount int, errorMessage *string) error
}

type MirrorEnqueuer interface {
	EnqueueMirrorJob(ctx context.Context, job model.MirrorJob) error
}

type ImportWorker struct {
	cfg        *config.Config
	repo       ImportStore
	storage    storage.Storage
	parser     excel.ParsingStrategy
	mirror     MirrorEnqueuer
	consumer   *queue.Consumer
	dlq        DeadLetterer
	workerPool *WorkerPool
	log        zerolog.Logger
}

func NewImportWorker(
	cfg *config.Config,
	repo db.Repository,
	storage storage.Storage,
	redisClient *queue.RedisClient,
) *ImportWorker {
	consumer := queue.NewConsumer(redisClient, cfg)
	return &ImportWorker{
		cfg:        cfg,
		repo:       repo,
		storage:    storage,
		parser:     excel.NewExcelStrategy(),
		mirror:     queue.NewProducer(redisClient, cfg),
		consumer:   consumer,
		dlq:        consumer,
		workerPool: NewWorkerPool(cfg.Workers.Import.Count),
		log:        logger.Component("import_worker"),
	}
}

func (w *ImportWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting import worker")

	w.workerPool.Start(ctx)

	return w.consumer.ConsumeImportQueue(ctx, w.handleMessage)
}

func (w *ImportWorker) Stop() {
	w.log.Info().Msg("Stopping import worker")
	w.workerPool.Stop()
}

func (w *ImportWorker) handleMessage(ctx context.Context, data []byte) error {
	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error().Err(err).Msg("Failed to unmarshal import job")
		return err
	}

	w.log.Info().Str("file_id", job.FileID).Str("s3_path", job.S3Path).Msg("Processing import job")

	return w.workerPool.Submit(ctx, func(ctx context.Context) error {
		if err := w.processFile(ctx, job); err != nil {
			w.dlq.DeadLetter(context.WithoutCancel(ctx), w.cfg.Redis.ImportQueue, data)
			return err
		}
		return nil
	})
}

// processFile imports every row of the uploaded workbook. Nothing is
// written unless the whole file validates.
func (w *ImportWorker) processFile(ctx context.Context, job model.ImportJob) error {
	log := w.log.With().Str("file_id", job.FileID).Logger()

	log.Debug().Msg("Downloading file from S3")
	reader, err := w.storage.Download(ctx, job.S3Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to download file")
		return w.fail(ctx, job, 0, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read file data")
		return w.fail(ctx, job, 0, err)
	}

	log.Debug().Msg("Parsing Excel file")
	rows, err := w.parser.Parse(ctx, data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse Excel file")
		return w.fail(ctx, job, 0, err)
	}

	log.Debug().Int("row_count", len(rows)).Msg("Validating parsed rows")
	if err := w.parser.Validate(ctx, rows); err != nil {
		log.Error().Err(err).Msg("Row validation failed")
		return w.fail(ctx, job, 0, err)
	}

	imported := 0
	for _, row := range rows {
		listing := &model.Listing{CreatedBy: job.CreatedBy}
		row.Request.Apply(listing)

		if err := w.repo.CreateListing(ctx, listing); err != nil {
			log.Error().Err(err).Int("row", row.Number).Msg("Failed to insert listing")
			return w.fail(ctx, job, imported, fmt.Errorf("row %d: %w", row.Number, err))
		}
		imported++

		if err := w.mirror.EnqueueMirrorJob(ctx, model.MirrorJob{ListingID: listing.ID}); err != nil {
			log.Warn().Err(err).Str("listing_id", listing.ID).Msg("Failed to enqueue mirror job")
		}
	}

	if err := w.repo.UpdateImportStatus(ctx, job.FileID, model.ImportStatusImported, imported, nil); err != nil {
		log.Error().Err(err).Msg("Failed to update import status")
		return err
	}

	log.Info().Int("listing_count", imported).Msg("File imported successfully")
	return nil
}

func (w *ImportWorker) fail(ctx context.Context, job model.ImportJob, imported int, cause error) error {
	msg := cause.Error()
	if err := w.repo.UpdateImportStatus(ctx, job.FileID, model.ImportStatusFailed, imported, &msg); err != nil {
		w.log.Error().Err(err).Str("file_id", job.FileID).Msg("Failed to record import failure")
	}
	return cause
}

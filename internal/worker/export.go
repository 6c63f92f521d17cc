package worker

import (
	"bytes"
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"placement-portal/internal/config"
	"placement-portal/internal/excel"
	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/internal/storage"

	"github.com/rs/zerolog"
)

type ListingSource interface {
	FetchAll(ctx context.Context) ([]model.Listing, error)
}

// ExportWorker writes a workbook of every listing to object storage once
// a day, at the end of the day in the configured timezone.
type ExportWorker struct {
	cfg     *config.Config
	repo    ListingSource
	storage storage.Storage
	loc     *time.Location
	now     func() time.Time
	log     zerolog.Logger
}

func NewExportWorker(
	cfg *config.Config,
	repo ListingSource,
	storage storage.Storage,
) (*ExportWorker, error) {
	loc, err := time.LoadLocation(cfg.Workers.Export.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid export timezone %q: %w", cfg.Workers.Export.Timezone, err)
	}

	return &ExportWorker{
		cfg:     cfg,
		repo:    repo,
		storage: storage,
		loc:     loc,
		now:     time.Now,
		log:     logger.Component("export_worker"),
	}, nil
}

func (w *ExportWorker) Start(ctx context.Context) error {
	w.log.Info().Msg("Starting export worker")

	nextRun := w.nextRunTime(w.now())
	w.log.Info().Time("next_run", nextRun).Msg("Scheduled next export")

	if w.cfg.Workers.Export.RunOnStart {
		w.log.Info().Msg("Running initial export on startup")
		if _, err := w.Export(ctx); err != nil {
			w.log.Error().Err(err).Msg("Initial export failed")
		}
	}

	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Export worker context cancelled")
			return ctx.Err()
		case <-timer.C:
			w.log.Info().Msg("Starting scheduled export")
			if _, err := w.Export(ctx); err != nil {
				w.log.Error().Err(err).Msg("Scheduled export failed")
			}

			nextRun = w.nextRunTime(w.now())
			w.log.Info().Time("next_run", nextRun).Msg("Scheduled next export")
			timer.Reset(time.Until(nextRun))
		}
	}
}

// Stop only logs; Start releases its timer when ctx is cancelled.
func (w *ExportWorker) Stop() {
	w.log.Info().Msg("Export worker stopped")
}

// nextRunTime returns 23:59:59 of now's day in the export timezone, or of
// the following day once that has passed.
func (w *ExportWorker) nextRunTime(now time.Time) time.Time {
	now = now.In(w.loc)
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, w.loc)

	if !now.Before(endOfDay) {
		endOfDay = time.Date(now.Year(), now.Month(), now.Day()+1, 23, 59, 59, 0, w.loc)
	}

	return endOfDay
}

// Export uploads the current listings workbook and returns its object key.
func (w *ExportWorker) Export(ctx context.Context) (string, error) {
	startTime := w.now()

	listings, err := w.repo.FetchAll(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch listings: %w", err)
	}

	data, err := excel.WriteWorkbook(listings)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%slistings_%s.xlsx", w.cfg.Workers.Export.Prefix, startTime.In(w.loc).Format("20060102"))
	if err := w.storage.Upload(ctx, key, excel.ContentType, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}

	w.log.Info().
		Str("key", key).
		Int("listings", len(listings)).
		Dur("duration", time.Since(startTime)).
		Msg("Export completed")
	return key, nil
}

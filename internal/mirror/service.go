package mirror

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"placement-portal/internal/config"
	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ListingSource interface {
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	FetchAll(ctx context.Context) ([]model.Listing, error)
}

type Poster interface {
	Post(ctx context.Context, form url.Values) (string, error)
}

type Service struct {
	cfg    *config.Config
	repo   ListingSource
	client Poster
	log    zerolog.Logger
}

func NewService(cfg *config.Config, repo ListingSource) *Service {
	return NewServiceWithPoster(cfg, repo, NewClient(cfg))
}

func NewServiceWithPoster(cfg *config.Config, repo ListingSource, poster Poster) *Service {
	return &Service{
		cfg:    cfg,
		repo:   repo,
		client: poster,
		log:    logger.Component("mirror"),
	}
}

// ProcessMirrorJob mirrors the job's listing. A listing that no longer
// exists is skipped.
func (s *Service) ProcessMirrorJob(ctx context.Context, job model.MirrorJob) error {
	log := s.log.With().Str("listing_id", job.ListingID).Logger()

	listing, err := s.repo.GetListing(ctx, job.ListingID)
	if stderrors.Is(err, errors.ErrListingNotFound) {
		log.Warn().Msg("Listing vanished before mirroring, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}

	ack, err := s.Mirror(ctx, *listing)
	if err != nil {
		log.Error().Err(err).Msg("Mirror job failed")
		return err
	}

	log.Info().Str("ack", ack).Msg("Listing mirrored")
	return nil
}

// Mirror posts one listing, retrying RetryableErrors with a linearly
// growing delay.
func (s *Service) Mirror(ctx context.Context, listing model.Listing) (string, error) {
	form := Flatten(listing)

	var lastErr error
	for attempt := 0; attempt < s.cfg.Mirror.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.cfg.Mirror.RetryDelay * time.Duration(attempt)):
			}
		}

		ack, err := s.client.Post(ctx, form)
		if err == nil {
			return ack, nil
		}
		if !errors.IsRetryable(err) {
			return "", err
		}

		lastErr = err
		s.log.Warn().Err(err).Str("listing_id", listing.ID).Int("attempt", attempt+1).Msg("Mirror post failed, retrying")
	}

	return "", fmt.Errorf("max retries exhausted: %w", lastErr)
}

// Backfill mirrors every stored listing with at most
// Mirror.BackfillWorkers posts in flight. Individual failures are counted,
// not returned.
func (s *Service) Backfill(ctx context.Context) (model.BackfillResponse, error) {
	listings, err := s.repo.FetchAll(ctx)
	if err != nil {
		return model.BackfillResponse{}, fmt.Errorf("%w: %w", errors.ErrFetchFailed, err)
	}

	var mirrored, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.cfg.Mirror.BackfillWorkers)

	for _, l := range listings {
		l := l
		g.Go(func() error {
			if _, err := s.Mirror(ctx, l); err != nil {
				failed.Add(1)
				s.log.Error().Err(err).Str("listing_id", l.ID).Msg("Backfill mirror failed")
				return nil
			}
			mirrored.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	res := model.BackfillResponse{
		Total:    len(listings),
		Mirrored: int(mirrored.Load()),
		Failed:   int(failed.Load()),
	}
	s.log.Info().Int("total", res.Total).Int("mirrored", res.Mirrored).Int("failed", res.Failed).Msg("Backfill finished")
	return res, nil
}

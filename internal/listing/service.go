package listing

import (
	"context"
	"fmt"
	"io"

	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"

	"github.com/rs/zerolog"
)

// Store is the part of the record store the submission flow writes to.
type Store interface {
	GetListing(ctx context.Context, id string) (*model.Listing, error)
	CreateListing(ctx context.Context, listing *model.Listing) error
	UpdateListing(ctx context.Context, listing *model.Listing) error
	FetchWhere(ctx context.Context, field, value string) ([]model.Listing, error)
}

type AssetUploader interface {
	UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	DeleteImage(ctx context.Context, url string) error
}

type MirrorEnqueuer interface {
	EnqueueMirrorJob(ctx context.Context, job model.MirrorJob) error
}

// Screenshot is an uploaded mail screenshot.
type Screenshot struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Service struct {
	store  Store
	assets AssetUploader
	mirror MirrorEnqueuer
	log    zerolog.Logger
}

func NewService(store Store, assets AssetUploader, mirror MirrorEnqueuer) *Service {
	return &Service{
		store:  store,
		assets: assets,
		mirror: mirror,
		log:    logger.Component("listing"),
	}
}

// Submit validates the request, uploads the screenshot if one is given,
// persists the listing and queues it for the spreadsheet mirror.
func (s *Service) Submit(ctx context.Context, email string, req model.ListingRequest, shot *Screenshot) (*model.Listing, error) {
	req = Normalize(req)
	if err := Validate(req); err != nil {
		return nil, err
	}

	listing := &model.Listing{CreatedBy: email}
	req.Apply(listing)

	if shot != nil {
		url, err := s.assets.UploadImage(ctx, shot.Filename, shot.ContentType, shot.Body)
		if err != nil {
			return nil, fmt.Errorf("upload screenshot: %w", err)
		}
		listing.ScreenshotURL = url
	}

	if err := s.store.CreateListing(ctx, listing); err != nil {
		s.discardUpload(ctx, shot, listing.ScreenshotURL)
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info().
		Str("listing_id", listing.ID).
		Str("company", listing.CompanyName).
		Str("institute", listing.Institute).
		Str("created_by", email).
		Msg("Listing submitted")

	s.enqueueMirror(ctx, listing.ID)
	return listing, nil
}

// Edit updates a listing owned by email. Without a new screenshot the
// existing URL is kept.
func (s *Service) Edit(ctx context.Context, email, id string, req model.ListingRequest, shot *Screenshot) (*model.Listing, error) {
	listing, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.CreatedBy != email {
		s.log.Warn().Str("listing_id", id).Str("email", email).Msg("Edit attempted by non-owner")
		return nil, errors.ErrNotOwner
	}

	req = Normalize(req)
	if err := Validate(req); err != nil {
		return nil, err
	}
	req.Apply(listing)

	if shot != nil {
		url, err := s.assets.UploadImage(ctx, shot.Filename, shot.ContentType, shot.Body)
		if err != nil {
			return nil, fmt.Errorf("upload screenshot: %w", err)
		}
		listing.ScreenshotURL = url
	}

	if err := s.store.UpdateListing(ctx, listing); err != nil {
		s.discardUpload(ctx, shot, listing.ScreenshotURL)
		return nil, fmt.Errorf("update listing: %w", err)
	}

	s.log.Info().Str("listing_id", id).Str("created_by", email).Msg("Listing updated")

	s.enqueueMirror(ctx, listing.ID)
	return listing, nil
}

// Mine returns the listings created by email.
func (s *Service) Mine(ctx context.Context, email string) ([]model.Listing, error) {
	listings, err := s.store.FetchWhere(ctx, "created_by", email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrFetchFailed, err)
	}
	return listings, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Listing, error) {
	return s.store.GetListing(ctx, id)
}

// Enqueue failures are only logged; the listing is already stored.
func (s *Service) enqueueMirror(ctx context.Context, id string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.EnqueueMirrorJob(ctx, model.MirrorJob{ListingID: id}); err != nil {
		s.log.Error().Err(err).Str("listing_id", id).Msg("Failed to enqueue mirror job")
	}
}

// discardUpload removes a screenshot uploaded for a write that did not
// persist. Failure only leaves an unreferenced object behind.
func (s *Service) discardUpload(ctx context.Context, shot *Screenshot, url string) {
	if shot == nil || url == "" {
		return
	}
	if err := s.assets.DeleteImage(context.WithoutCancel(ctx), url); err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("Failed to remove orphaned screenshot")
	}
}

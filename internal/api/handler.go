package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"

	"placement-portal/internal/config"
	"placement-portal/internal/listing"
	"placement-portal/internal/logger"
	"placement-portal/internal/model"
	"placement-portal/internal/viewmodel"
	"placement-portal/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
}

type ListingService interface {
	Submit(ctx context.Context, email string, req model.ListingRequest, shot *listing.Screenshot) (*model.Listing, error)
	Edit(ctx context.Context, email, id string, req model.ListingRequest, shot *listing.Screenshot) (*model.Listing, error)
	Mine(ctx context.Context, email string) ([]model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
}

type ImportStore interface {
	CreateImportFile(ctx context.Context, file *model.ImportFile) error
	GetImportFile(ctx context.Context, id string) (*model.ImportFile, error)
}

type ImportEnqueuer interface {
	EnqueueImportJob(ctx context.Context, job model.ImportJob) error
}

type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data io.Reader) error
}

type Backfiller interface {
	Backfill(ctx context.Context) (model.BackfillResponse, error)
}

type QueueInspector interface {
	QueueDepths(ctx context.Context) (map[string]int64, error)
}

// Services are the collaborators the handlers call into.
type Services struct {
	Auth     AuthService
	Listings ListingService
	Records  viewmodel.RecordStore
	Imports  ImportStore
	Queue    ImportEnqueuer
	Storage  Uploader
	Mirror   Backfiller
	Queues   QueueInspector
}

type Handler struct {
	svc      Services
	registry *viewmodel.Registry
	cfg      *config.Config
	log      zerolog.Logger
}

func NewHandler(
	cfg *config.Config,
	svc Services,
	registry *viewmodel.Registry,
) *Handler {
	return &Handler{
		svc:      svc,
		registry: registry,
		cfg:      cfg,
		log:      logger.Component("api"),
	}
}

// HealthCheck reports liveness plus queue and dead-letter backlogs when a
// queue inspector is wired. An unreachable Redis marks the service degraded.
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	}

	if h.svc.Queues != nil {
		depths, err := h.svc.Queues.QueueDepths(c.Request.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read queue depths")
			body["status"] = "degraded"
		} else {
			body["queues"] = depths
		}
	}

	c.JSON(http.StatusOK, body)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrListingNotFound), stderrors.Is(err, errors.ErrImportNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrNotOwner):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrUnauthenticated), stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrSchemaValidation),
		stderrors.Is(err, errors.ErrUnknownSortField),
		stderrors.Is(err, errors.ErrInvalidFileFormat),
		stderrors.Is(err, errors.ErrUnsupportedField):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrUserExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrFetchFailed):
		return http.StatusBadGateway
	case stderrors.Is(err, errors.ErrMirrorNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	} else {
		h.log.Debug().Err(err).Str("path", c.FullPath()).Int("status", status).Msg(msg)
	}

	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body = gin.H{"error": "Internal server error"}
	}
	c.JSON(status, body)
}

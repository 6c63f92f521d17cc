package mirror

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"placement-portal/internal/config"
	"placement-portal/internal/logger"
	"placement-portal/pkg/errors"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxAckBytes = 64 << 10

// Client posts flattened listings to the spreadsheet webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		webhookURL: cfg.Mirror.WebhookURL,
		httpClient: &http.Client{
			Timeout: cfg.Mirror.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.Mirror.RequestsPerSecond), cfg.Mirror.Burst),
		log:     logger.Component("mirror_client"),
	}
}

// Post sends form as an urlencoded POST and returns the webhook's text
// acknowledgement. Transport errors, 429 and 5xx are RetryableErrors;
// other non-2xx statuses wrap ErrMirrorRejected.
func (c *Client) Post(ctx context.Context, form url.Values) (string, error) {
	if c.webhookURL == "" {
		return "", errors.ErrMirrorNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.log.Debug().Str("document_id", form.Get("documentId")).Msg("Posting row to spreadsheet webhook")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewRetryableError(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAckBytes))
	if err != nil {
		return "", errors.NewRetryableError(err, "failed to read response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return string(body), nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", errors.NewRetryableError(fmt.Errorf("HTTP %d", resp.StatusCode), "spreadsheet webhook unavailable")
	default:
		return "", fmt.Errorf("%w: HTTP %d: %s", errors.ErrMirrorRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"placement-portal/internal/logger"

	"github.com/rs/zerolog"
)

const screenshotPrefix = "screenshots/"

// AssetHost stores listing screenshots and hands back durable URLs.
type AssetHost struct {
	storage Storage
	baseURL string
	now     func() time.Time
	log     zerolog.Logger
}

func NewAssetHost(storage Storage, baseURL string) *AssetHost {
	return &AssetHost{
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     logger.Component("asset_host"),
	}
}

// UploadImage stores body under a unique name derived from filename and
// returns its public URL.
func (h *AssetHost) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := screenshotPrefix + UniqueName(filename, h.now())

	if err := h.storage.Upload(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	h.log.Debug().Str("key", key).Msg("Screenshot uploaded")
	return h.URL(key), nil
}

// DeleteImage removes a screenshot previously returned by UploadImage.
// URLs outside this host's screenshot prefix are left alone, as are
// objects that no longer exist.
func (h *AssetHost) DeleteImage(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, h.baseURL+"/")
	if !ok || !strings.HasPrefix(key, screenshotPrefix) {
		return fmt.Errorf("not a hosted screenshot: %s", url)
	}

	exists, err := h.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if !exists {
		return nil
	}

	if err := h.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	h.log.Debug().Str("key", key).Msg("Screenshot deleted")
	return nil
}

func (h *AssetHost) URL(key string) string {
	return h.baseURL + "/" + key
}

// UniqueName turns "mail.png" into "mail_<unix millis>.png". Characters
// outside [A-Za-z0-9._-] become underscores.
func UniqueName(filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
	if name == "" {
		name = "upload"
	}

	return fmt.Sprintf("%s_%d%s", name, now.UnixMilli(), strings.ToLower(ext))
}

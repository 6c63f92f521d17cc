package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Upload(ctx context.Context, key, contentType string, data io.Reader) error {
	if m.err != nil {
		return m.err
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf
	m.types[key] = contentType
	return nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func TestUniqueName(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1723000000123)
	cases := map[string]string{
		"mail.png":           "mail_1723000000123.png",
		"offer letter.JPG":   "offer_letter_1723000000123.jpg",
		"C:\\tmp\\shot.jpeg": "shot_1723000000123.jpeg",
		"../../etc/passwd":   "passwd_1723000000123",
		"archive.tar.gz":     "archive.tar_1723000000123.gz",
		"":                   "upload_1723000000123",
	}

	for in, want := range cases {
		if got := UniqueName(in, now); got != want {
			t.Fatalf("UniqueName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAssetHostUploadImage(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	host := NewAssetHost(store, "https://cdn.example.com/placements/")
	host.now = func() time.Time { return time.UnixMilli(42) }

	url, err := host.UploadImage(context.Background(), "mail.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/placements/screenshots/mail_42.png" {
		t.Fatalf("unexpected url %q", url)
	}

	ok, _ := store.Exists(context.Background(), "screenshots/mail_42.png")
	if !ok {
		t.Fatalf("object not stored")
	}
	if store.types["screenshots/mail_42.png"] != "image/png" {
		t.Fatalf("content type not passed through")
	}
}

func TestAssetHostUploadError(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	store.err = fmt.Errorf("bucket unavailable")
	host := NewAssetHost(store, "https://cdn.example.com")

	if _, err := host.UploadImage(context.Background(), "a.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected upload error")
	}
}

func TestAssetHostDeleteImage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStorage()
	host := NewAssetHost(store, "https://cdn.example.com/placements")
	host.now = func() time.Time { return time.UnixMilli(7) }

	url, err := host.UploadImage(ctx, "mail.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := host.DeleteImage(ctx, url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, "screenshots/mail_7.png"); ok {
		t.Fatalf("object still stored after delete")
	}

	// already gone
	if err := host.DeleteImage(ctx, url); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	for _, foreign := range []string{
		"https://elsewhere.example.com/screenshots/mail_7.png",
		"https://cdn.example.com/placements/imports/a.xlsx",
	} {
		if err := host.DeleteImage(ctx, foreign); err == nil {
			t.Fatalf("expected %q to be refused", foreign)
		}
	}
}

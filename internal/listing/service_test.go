package listing

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"placement-portal/internal/model"
	"placement-portal/pkg/errors"
)

type memStore struct {
	mu       sync.Mutex
	listings map[string]model.Listing
	seq      int
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{listings: map[string]model.Listing{}}
}

func (m *memStore) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, errors.ErrListingNotFound
	}
	return &l, nil
}

func (m *memStore) CreateListing(ctx context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.seq++
	l.ID = fmt.Sprintf("listing-%d", m.seq)
	m.listings[l.ID] = *l
	return nil
}

func (m *memStore) UpdateListing(ctx context.Context, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.listings[l.ID] = *l
	return nil
}

func (m *memStore) FetchWhere(ctx context.Context, field, value string) ([]model.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Listing
	for _, l := range m.listings {
		if field == "created_by" && l.CreatedBy == value {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeAssets struct {
	uploads []string
	deleted []string
	err     error
}

func (f *fakeAssets) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, filename)
	return "https://cdn.example.com/screenshots/" + filename, nil
}

func (f *fakeAssets) DeleteImage(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeMirror struct {
	jobs []model.MirrorJob
	err  error
}

func (f *fakeMirror) EnqueueMirrorJob(ctx context.Context, job model.MirrorJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func validRequest() model.ListingRequest {
	return model.ListingRequest{
		CompanyName: "  Acme ",
		Institute:   "IIT Bombay",
		Stipend:     "50000",
		Eligibility: []model.Degree{model.DegreeBTech},
		PPTDate:     "2024-08-01",
	}
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	store, assets, mirror := newMemStore(), &fakeAssets{}, &fakeMirror{}
	svc := NewService(store, assets, mirror)

	shot := &Screenshot{Filename: "mail.png", ContentType: "image/png", Body: strings.NewReader("img")}
	got, err := svc.Submit(context.Background(), "alice@example.com", validRequest(), shot)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got.CompanyName != "Acme" {
		t.Fatalf("company name not trimmed: %q", got.CompanyName)
	}
	if got.JobType != model.JobTypeIntern {
		t.Fatalf("expected default job type Intern, got %q", got.JobType)
	}
	if got.CreatedBy != "alice@example.com" {
		t.Fatalf("unexpected owner %q", got.CreatedBy)
	}
	if got.ScreenshotURL != "https://cdn.example.com/screenshots/mail.png" {
		t.Fatalf("unexpected screenshot url %q", got.ScreenshotURL)
	}
	if len(mirror.jobs) != 1 || mirror.jobs[0].ListingID != got.ID {
		t.Fatalf("mirror job not enqueued: %+v", mirror.jobs)
	}
}

func TestSubmitWithoutScreenshot(t *testing.T) {
	t.Parallel()

	assets := &fakeAssets{}
	svc := NewService(newMemStore(), assets, &fakeMirror{})

	got, err := svc.Submit(context.Background(), "alice@example.com", validRequest(), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.ScreenshotURL != "" || len(assets.uploads) != 0 {
		t.Fatalf("unexpected upload for listing without screenshot")
	}
}

func TestSubmitRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	cases := map[string]func(r *model.ListingRequest){
		"no eligibility":       func(r *model.ListingRequest) { r.Eligibility = nil },
		"empty eligibility":    func(r *model.ListingRequest) { r.Eligibility = []model.Degree{} },
		"unknown degree":       func(r *model.ListingRequest) { r.Eligibility = []model.Degree{"PhD"} },
		"bad job type":         func(r *model.ListingRequest) { r.JobType = "Contract" },
		"no company":           func(r *model.ListingRequest) { r.CompanyName = "   " },
		"no institute":         func(r *model.ListingRequest) { r.Institute = "" },
		"stipend not a number": func(r *model.ListingRequest) { r.Stipend = "lots" },
		"bad date":             func(r *model.ListingRequest) { r.OADate = "15/07/2024" },
	}

	for name, mutate := range cases {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, mirror := newMemStore(), &fakeMirror{}
			svc := NewService(store, &fakeAssets{}, mirror)

			req := validRequest()
			mutate(&req)

			_, err := svc.Submit(context.Background(), "alice@example.com", req, nil)
			if !stderrors.Is(err, errors.ErrSchemaValidation) {
				t.Fatalf("expected ErrSchemaValidation, got %v", err)
			}
			if len(store.listings) != 0 || len(mirror.jobs) != 0 {
				t.Fatalf("invalid request was persisted")
			}
		})
	}
}

func TestSubmitSurvivesMirrorEnqueueFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewService(store, &fakeAssets{}, &fakeMirror{err: fmt.Errorf("redis down")})

	if _, err := svc.Submit(context.Background(), "alice@example.com", validRequest(), nil); err != nil {
		t.Fatalf("submit should not fail on mirror enqueue: %v", err)
	}
	if len(store.listings) != 1 {
		t.Fatalf("listing not stored")
	}
}

func TestSubmitUploadFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewService(store, &fakeAssets{err: fmt.Errorf("s3 down")}, &fakeMirror{})

	shot := &Screenshot{Filename: "mail.png", Body: strings.NewReader("img")}
	if _, err := svc.Submit(context.Background(), "alice@example.com", validRequest(), shot); err == nil {
		t.Fatalf("expected upload error")
	}
	if len(store.listings) != 0 {
		t.Fatalf("listing stored despite failed upload")
	}
}

func TestEdit(t *testing.T) {
	t.Parallel()

	store, mirror := newMemStore(), &fakeMirror{}
	svc := NewService(store, &fakeAssets{}, mirror)
	ctx := context.Background()

	shot := &Screenshot{Filename: "mail.png", Body: strings.NewReader("img")}
	created, err := svc.Submit(ctx, "alice@example.com", validRequest(), shot)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := validRequest()
	req.Stipend = "60000"
	req.JobType = model.JobTypeFTE

	updated, err := svc.Edit(ctx, "alice@example.com", created.ID, req, nil)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Stipend != "60000" || updated.JobType != model.JobTypeFTE {
		t.Fatalf("fields not updated: %+v", updated)
	}
	if updated.ScreenshotURL != created.ScreenshotURL {
		t.Fatalf("screenshot url dropped on edit without upload")
	}
	if updated.ID != created.ID || updated.CreatedBy != created.CreatedBy {
		t.Fatalf("immutable fields changed")
	}
	if len(mirror.jobs) != 2 {
		t.Fatalf("expected a mirror job per write, got %d", len(mirror.jobs))
	}
}

func TestFailedWriteRemovesUploadedScreenshot(t *testing.T) {
	t.Parallel()

	store, assets := newMemStore(), &fakeAssets{}
	svc := NewService(store, assets, &fakeMirror{})
	ctx := context.Background()

	created, err := svc.Submit(ctx, "alice@example.com", validRequest(), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	store.writeErr = fmt.Errorf("db down")

	shot := &Screenshot{Filename: "new.png", Body: strings.NewReader("img")}
	if _, err := svc.Edit(ctx, "alice@example.com", created.ID, validRequest(), shot); err == nil {
		t.Fatalf("expected update error")
	}
	shot = &Screenshot{Filename: "other.png", Body: strings.NewReader("img")}
	if _, err := svc.Submit(ctx, "alice@example.com", validRequest(), shot); err == nil {
		t.Fatalf("expected create error")
	}

	want := []string{
		"https://cdn.example.com/screenshots/new.png",
		"https://cdn.example.com/screenshots/other.png",
	}
	if len(assets.deleted) != 2 || assets.deleted[0] != want[0] || assets.deleted[1] != want[1] {
		t.Fatalf("expected orphaned uploads removed, got %v", assets.deleted)
	}

	// a failed edit without a new screenshot must not touch the stored one
	if _, err := svc.Edit(ctx, "alice@example.com", created.ID, validRequest(), nil); err == nil {
		t.Fatalf("expected update error")
	}
	if len(assets.deleted) != 2 {
		t.Fatalf("existing screenshot deleted: %v", assets.deleted)
	}
}

func TestEditByNonOwner(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewService(store, &fakeAssets{}, &fakeMirror{})
	ctx := context.Background()

	created, err := svc.Submit(ctx, "alice@example.com", validRequest(), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := validRequest()
	req.Stipend = "1"
	if _, err := svc.Edit(ctx, "mallory@example.com", created.ID, req, nil); !stderrors.Is(err, errors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if store.listings[created.ID].Stipend != "50000" {
		t.Fatalf("non-owner edit was applied")
	}

	if _, err := svc.Edit(ctx, "alice@example.com", "missing", req, nil); !stderrors.Is(err, errors.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestMine(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemStore(), &fakeAssets{}, nil)
	ctx := context.Background()

	for _, email := range []string{"alice@example.com", "bob@example.com", "alice@example.com"} {
		if _, err := svc.Submit(ctx, email, validRequest(), nil); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	mine, err := svc.Mine(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(mine))
	}
}

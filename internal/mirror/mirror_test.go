package mirror

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"placement-portal/internal/config"
	"placement-portal/internal/model"
	"placement-portal/pkg/errors"
)

func testConfig(webhook string) *config.Config {
	cfg := &config.Config{}
	cfg.Mirror.WebhookURL = webhook
	cfg.Mirror.Timeout = 5 * time.Second
	cfg.Mirror.RetryAttempts = 3
	cfg.Mirror.RetryDelay = time.Millisecond
	cfg.Mirror.RequestsPerSecond = 1000
	cfg.Mirror.Burst = 10
	cfg.Mirror.BackfillWorkers = 2
	return cfg
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	hires := 4
	form := Flatten(model.Listing{
		ID:                "abc",
		CompanyName:       "Acme",
		Institute:         "IIT Bombay",
		JobType:           model.JobTypeFTE,
		Stipend:           "30 LPA",
		Eligibility:       []model.Degree{model.DegreeBTech, model.DegreeIDD},
		PPTDate:           "2024-08-01",
		ScreenshotURL:     "https://cdn.example.com/screenshots/a.png",
		FinalHiringNumber: &hires,
	})

	want := map[string]string{
		"documentId":        "abc",
		"companyName":       "Acme",
		"jobType":           "FTE",
		"stipend":           "30 LPA",
		"role":              "",
		"openFor":           "BTech, IDD",
		"pptDate":           "2024-08-01",
		"oaDate":            "",
		"mailScreenshot":    "https://cdn.example.com/screenshots/a.png",
		"finalHiringNumber": "4",
		"iitName":           "IIT Bombay",
	}
	for key, value := range want {
		if got := form.Get(key); got != value {
			t.Fatalf("%s: expected %q, got %q", key, value, got)
		}
	}
	if _, ok := form["hrDetails"]; !ok {
		t.Fatalf("expected hrDetails to be present even when empty")
	}
}

func TestClientPostStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		status    int
		body      string
		wantAck   string
		retryable bool
		rejected  bool
	}{
		{name: "ok", status: http.StatusOK, body: "Row added", wantAck: "Row added"},
		{name: "throttled", status: http.StatusTooManyRequests, retryable: true},
		{name: "server error", status: http.StatusBadGateway, retryable: true},
		{name: "bad request", status: http.StatusBadRequest, body: "missing companyName", rejected: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if err := r.ParseForm(); err != nil {
					t.Errorf("parse form: %v", err)
				}
				if r.PostForm.Get("companyName") != "Acme" {
					t.Errorf("form not posted: %v", r.PostForm)
				}
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := NewClient(testConfig(srv.URL))
			ack, err := client.Post(context.Background(), url.Values{"companyName": {"Acme"}})

			switch {
			case tc.retryable:
				if !errors.IsRetryable(err) {
					t.Fatalf("expected retryable error, got %v", err)
				}
			case tc.rejected:
				if !stderrors.Is(err, errors.ErrMirrorRejected) || errors.IsRetryable(err) {
					t.Fatalf("expected ErrMirrorRejected, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("post: %v", err)
				}
				if ack != tc.wantAck {
					t.Fatalf("expected ack %q, got %q", tc.wantAck, ack)
				}
			}
		})
	}
}

func TestClientWithoutWebhook(t *testing.T) {
	t.Parallel()

	client := NewClient(testConfig(""))
	if _, err := client.Post(context.Background(), url.Values{}); !stderrors.Is(err, errors.ErrMirrorNotConfigured) {
		t.Fatalf("expected ErrMirrorNotConfigured, got %v", err)
	}
}

type fakeSource struct {
	listings []model.Listing
	err      error
}

func (f *fakeSource) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	for _, l := range f.listings {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, errors.ErrListingNotFound
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]model.Listing, error) {
	return f.listings, f.err
}

// scriptedPoster returns errs in order, then succeeds.
type scriptedPoster struct {
	mu    sync.Mutex
	errs  []error
	calls int
	fail  map[string]error
}

func (p *scriptedPoster) Post(ctx context.Context, form url.Values) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if err, ok := p.fail[form.Get("documentId")]; ok {
		return "", err
	}
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return "", err
	}
	return "ok", nil
}

func TestProcessMirrorJobRetriesRetryableErrors(t *testing.T) {
	t.Parallel()

	poster := &scriptedPoster{errs: []error{
		errors.NewRetryableError(stderrors.New("HTTP 503"), "unavailable"),
		errors.NewRetryableError(stderrors.New("HTTP 503"), "unavailable"),
	}}
	source := &fakeSource{listings: []model.Listing{{ID: "1", CompanyName: "Acme"}}}
	svc := NewServiceWithPoster(testConfig("http://unused"), source, poster)

	if err := svc.ProcessMirrorJob(context.Background(), model.MirrorJob{ListingID: "1"}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if poster.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", poster.calls)
	}
}

func TestProcessMirrorJobStopsOnRejection(t *testing.T) {
	t.Parallel()

	poster := &scriptedPoster{errs: []error{errors.ErrMirrorRejected}}
	source := &fakeSource{listings: []model.Listing{{ID: "1", CompanyName: "Acme"}}}
	svc := NewServiceWithPoster(testConfig("http://unused"), source, poster)

	err := svc.ProcessMirrorJob(context.Background(), model.MirrorJob{ListingID: "1"})
	if !stderrors.Is(err, errors.ErrMirrorRejected) {
		t.Fatalf("expected ErrMirrorRejected, got %v", err)
	}
	if poster.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", poster.calls)
	}
}

func TestProcessMirrorJobExhaustsRetries(t *testing.T) {
	t.Parallel()

	retry := errors.NewRetryableError(stderrors.New("HTTP 500"), "unavailable")
	poster := &scriptedPoster{errs: []error{retry, retry, retry, retry}}
	source := &fakeSource{listings: []model.Listing{{ID: "1", CompanyName: "Acme"}}}
	svc := NewServiceWithPoster(testConfig("http://unused"), source, poster)

	err := svc.ProcessMirrorJob(context.Background(), model.MirrorJob{ListingID: "1"})
	if err == nil || !errors.IsRetryable(err) {
		t.Fatalf("expected wrapped retryable error, got %v", err)
	}
	if poster.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", poster.calls)
	}
}

func TestProcessMirrorJobSkipsMissingListing(t *testing.T) {
	t.Parallel()

	poster := &scriptedPoster{}
	svc := NewServiceWithPoster(testConfig("http://unused"), &fakeSource{}, poster)

	if err := svc.ProcessMirrorJob(context.Background(), model.MirrorJob{ListingID: "gone"}); err != nil {
		t.Fatalf("expected missing listing to be skipped, got %v", err)
	}
	if poster.calls != 0 {
		t.Fatalf("expected no posts, got %d", poster.calls)
	}
}

func TestBackfillCountsOutcomes(t *testing.T) {
	t.Parallel()

	source := &fakeSource{listings: []model.Listing{
		{ID: "1", CompanyName: "Acme"},
		{ID: "2", CompanyName: "Globex"},
		{ID: "3", CompanyName: "Initech"},
	}}
	poster := &scriptedPoster{fail: map[string]error{"2": errors.ErrMirrorRejected}}
	svc := NewServiceWithPoster(testConfig("http://unused"), source, poster)

	res, err := svc.Backfill(context.Background())
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if res.Total != 3 || res.Mirrored != 2 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestBackfillFetchFailure(t *testing.T) {
	t.Parallel()

	svc := NewServiceWithPoster(testConfig("http://unused"), &fakeSource{err: stderrors.New("db down")}, &scriptedPoster{})
	if _, err := svc.Backfill(context.Background()); !stderrors.Is(err, errors.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"sirius_reviews/internal/adapters/sirius"
	"sirius_reviews/internal/app"
	"sirius_reviews/internal/domain"
	"sirius_reviews/internal/shared"
	"sirius_reviews/internal/storage/table"
)

// ---------- fake Sirius API ----------
type fakeAPI struct {
	tokenStatus   int
	reviewsStatus int
	reviewsBody   string

	tokenHits, reviewHits int32
	gotQuery              atomic.Value
}

func (a *fakeAPI) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/token/new", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&a.tokenHits, 1)
		if a.tokenStatus != http.StatusOK {
			w.WriteHeader(a.tokenStatus)
			return
		}
		_ = req.ParseForm()
		_ = json.NewEncoder(w).Encode(map[string]any{"access": "tok-" + req.PostForm.Get("email")})
	})
	r.Get("/api/reviews/getAllReviewsWithoutPaging", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&a.reviewHits, 1)
		a.gotQuery.Store(req.URL.RawQuery)
		if req.Header.Get("Authorization") != "Bearer tok-me@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(a.reviewsStatus)
		_, _ = w.Write([]byte(a.reviewsBody))
	})
	return r
}

const reviewsBody = `{"results":[
 {"app_var":{"name":"Shop","platform":"android"},
  "content":{"device_manufacturer":"Samsung","device_model":"S21","polarity":"negative",
             "tags":["crash","login"],"score":1,"text":"keeps crashing","review_time":"2024-01-02T10:00:00Z"},
  "user_name":"ana",
  "response":{"end_time":"2024-01-03T08:00:00Z","text":"fixed in 2.1","user":{"email":"support@example.com"}}},
 {"app_var":{"name":"Shop","platform":"ios"},
  "content":{"device_manufacturer":"Apple","device_model":"iPhone 15","score":4.5,"text":"nice","review_time":"2024-01-05T10:00:00Z"},
  "user_name":"bob",
  "response":null}
]}`

// ---------- helpers ----------
func setup(t *testing.T, api *fakeAPI) (string, *app.ExportService) {
	t.Helper()
	ts := httptest.NewServer(api.router())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := map[string]any{
		"parameters": map[string]any{
			"username": "me@example.com", "#password": "pw", "hostname": ts.URL, "applications": "42,43",
		},
		"storage": map[string]any{"output": map[string]any{"tables": []any{
			map[string]any{"source": "reviews.csv", "destination": "out.c-sirius.reviews"},
		}}},
	}
	b, _ := json.Marshal(cfg)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), b, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	svc := app.NewExportService(
		func(hostname string) (domain.SiriusClient, error) {
			return sirius.New(sirius.BaseURL(hostname), 100, 5*time.Second)
		},
		func(job shared.Job) domain.TableWriter {
			return table.NewWriter(job.TablesDir, job.Output.Source, job.Output.Destination)
		},
		nil,
	)
	return dir, svc
}

func tablesDir(dir string) string { return filepath.Join(dir, "out", "tables") }

func assertNoOutput(t *testing.T, dir string) {
	t.Helper()
	ents, err := os.ReadDir(tablesDir(dir))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read tables dir: %v", err)
	}
	if len(ents) != 0 {
		t.Fatalf("expected no output, found %d entries", len(ents))
	}
}

// ---------- the tests ----------
func TestEndToEnd_ExportsReviews(t *testing.T) {
	api := &fakeAPI{tokenStatus: 200, reviewsStatus: 200, reviewsBody: reviewsBody}
	dir, svc := setup(t, api)

	out, err := svc.Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	q, _ := api.gotQuery.Load().(string)
	if q != "application=42&application=43&dateFrom=2000-01-01" {
		t.Fatalf("unexpected query: %s", q)
	}

	b, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	want := "app_name,platform,device_manufacturer,device_model,review_polarity,review_tags,review_score," +
		"review_text,review_author,review_time,response_time,response_text,response_author\n" +
		`Shop,android,Samsung,S21,negative,"[""crash"",""login""]",1,keeps crashing,ana,2024-01-02T10:00:00Z,` +
		"2024-01-03T08:00:00Z,fixed in 2.1,support@example.com\n" +
		"Shop,ios,Apple,iPhone 15,,,4.5,nice,bob,2024-01-05T10:00:00Z,,,\n"
	if string(b) != want {
		t.Fatalf("unexpected table:\n%q\nwant:\n%q", b, want)
	}

	mb, err := os.ReadFile(out.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(mb), `"destination":"out.c-sirius.reviews"`) {
		t.Fatalf("unexpected manifest: %s", mb)
	}
}

func TestEndToEnd_LoginRejected(t *testing.T) {
	api := &fakeAPI{tokenStatus: http.StatusForbidden}
	dir, svc := setup(t, api)

	_, err := svc.Run(context.Background(), dir)
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if atomic.LoadInt32(&api.tokenHits) != 1 || atomic.LoadInt32(&api.reviewHits) != 0 {
		t.Fatalf("unexpected calls: token=%d reviews=%d", api.tokenHits, api.reviewHits)
	}
	assertNoOutput(t, dir)
}

func TestEndToEnd_FetchRejected(t *testing.T) {
	api := &fakeAPI{tokenStatus: 200, reviewsStatus: http.StatusInternalServerError, reviewsBody: "boom"}
	dir, svc := setup(t, api)

	_, err := svc.Run(context.Background(), dir)
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if atomic.LoadInt32(&api.reviewHits) != 1 {
		t.Fatalf("expected a single fetch attempt, got %d", api.reviewHits)
	}
	assertNoOutput(t, dir)
}

func TestEndToEnd_MissingRequiredFieldAborts(t *testing.T) {
	body := `{"results":[{"app_var":{"name":"Shop","platform":"ios"},
	  "content":{"device_manufacturer":"Apple","device_model":"X","text":"no score","review_time":"t"},
	  "user_name":"bob"}]}`
	api := &fakeAPI{tokenStatus: 200, reviewsStatus: 200, reviewsBody: body}
	dir, svc := setup(t, api)

	_, err := svc.Run(context.Background(), dir)
	if !errors.Is(err, domain.ErrMapping) {
		t.Fatalf("expected ErrMapping, got %v", err)
	}
	assertNoOutput(t, dir)
}

func TestEndToEnd_SuccessStatusWithoutResultsAborts(t *testing.T) {
	api := &fakeAPI{tokenStatus: 200, reviewsStatus: 200, reviewsBody: `{"detail":"maintenance"}`}
	dir, svc := setup(t, api)

	_, err := svc.Run(context.Background(), dir)
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	assertNoOutput(t, dir)
}

func TestEndToEnd_ResponseNotAnObjectAborts(t *testing.T) {
	body := `{"results":[{"app_var":{"name":"Shop","platform":"ios"},
	  "content":{"device_manufacturer":"Apple","device_model":"X","score":3,"text":"meh","review_time":"t"},
	  "user_name":"bob","response":"oops"}]}`
	api := &fakeAPI{tokenStatus: 200, reviewsStatus: 200, reviewsBody: body}
	dir, svc := setup(t, api)

	_, err := svc.Run(context.Background(), dir)
	if !errors.Is(err, domain.ErrMapping) {
		t.Fatalf("expected ErrMapping, got %v", err)
	}
	assertNoOutput(t, dir)
}

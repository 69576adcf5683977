package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

const keejobListing = `
<html><body>
<div class="block_white_a">
  <a style="font-weight:bold" href="/offres-emploi/12345/chimiste">Chimiste Junior</a>
  <i class="fa-map-marker"></i> Ariana
  <i class="fa-clock-o"></i> Il y a 1 jours
</div>
</body></html>`

const keejobDetail = `
<html><body>
<div class="block_a">Poste de chimie analytique au laboratoire central. 2 ans d'expérience.</div>
</body></html>`

func TestKeejobFetchWithDetail(t *testing.T) {
	var detailCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/offres-emploi/12345") {
			detailCalls.Add(1)
			w.Write([]byte(keejobDetail))
			return
		}
		w.Write([]byte(keejobListing))
	}))
	defer srv.Close()

	f := NewKeejobFetcher(srv.Client())
	f.baseURL = srv.URL
	f.now = func() time.Time { return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC) }

	candidates, err := f.Fetch(context.Background(), "chimie", nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Title != "Chimiste Junior" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Location != "Ariana" {
		t.Errorf("location = %q", c.Location)
	}
	if !strings.Contains(c.Description, "chimie analytique") {
		t.Errorf("description = %q", c.Description)
	}
	if want := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC); !c.PublishDate.Equal(want) {
		t.Errorf("publish date = %v, want %v", c.PublishDate, want)
	}
	if detailCalls.Load() != 1 {
		t.Errorf("expected exactly 1 detail fetch, got %d", detailCalls.Load())
	}
}

func TestKeejobKnownLinkSkipsDetailFetch(t *testing.T) {
	var detailCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/offres-emploi/12345") {
			detailCalls.Add(1)
			w.Write([]byte(keejobDetail))
			return
		}
		w.Write([]byte(keejobListing))
	}))
	defer srv.Close()

	f := NewKeejobFetcher(srv.Client())
	f.baseURL = srv.URL

	known := func(string) bool { return true }
	candidates, err := f.Fetch(context.Background(), "chimie", known)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates for known links, got %d", len(candidates))
	}
	if detailCalls.Load() != 0 {
		t.Errorf("known link must not trigger a detail fetch, got %d", detailCalls.Load())
	}
}

func TestKeejobDetailFailureDropsCandidateOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/offres-emploi/12345") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(keejobListing))
	}))
	defer srv.Close()

	f := NewKeejobFetcher(srv.Client())
	f.baseURL = srv.URL

	candidates, err := f.Fetch(context.Background(), "chimie", nil)
	if err != nil {
		t.Fatalf("Fetch should not fail for a broken detail page: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected the broken candidate to be dropped, got %d", len(candidates))
	}
}

func TestKeejobRateLimitSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewKeejobFetcher(srv.Client())
	f.baseURL = srv.URL

	_, err := f.Fetch(context.Background(), "chimie", nil)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", httpErr.StatusCode)
	}
	if httpErr.RetryAfter != 30*time.Second {
		t.Errorf("retry-after = %v, want 30s", httpErr.RetryAfter)
	}
}

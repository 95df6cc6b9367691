package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	t.Run("records status of wrapped handler", func(t *testing.T) {
		h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "418"))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/brew/coffee", nil))

		if rr.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", rr.Code)
		}
		after := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "418"))
		if after != before+1 {
			t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
		}
	})

	t.Run("unmatched paths share one series", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /known", func(w http.ResponseWriter, r *http.Request) {})
		h := Middleware(mux)

		before := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
		series := testutil.CollectAndCount(RequestTotal)

		for _, path := range []string{"/wp-admin", "/random/1", "/random/2", "/.env"} {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		}

		after := testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
		if after != before+4 {
			t.Errorf("expected 4 unmatched requests, got %v -> %v", before, after)
		}
		if got := testutil.CollectAndCount(RequestTotal); got > series+1 {
			t.Errorf("expected at most one new series, got %d -> %d", series, got)
		}

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/known", nil))
		if testutil.ToFloat64(RequestTotal.WithLabelValues(http.MethodGet, "/known", "200")) < 1 {
			t.Error("expected matched route to be labelled by its pattern")
		}
	})

	t.Run("routeLabel", func(t *testing.T) {
		tc := []struct {
			name    string
			pattern string
			path    string
			want    string
		}{
			{name: "mux pattern with method", pattern: "GET /top_musics", path: "/top_musics", want: "/top_musics"},
			{name: "mux pattern without method", pattern: "/healthz", path: "/healthz", want: "/healthz"},
			{name: "root pattern", pattern: "GET /{$}", path: "/", want: "/{$}"},
			{name: "unmatched root", path: "/", want: unmatchedRoute},
			{name: "unmatched nested path", path: "/a/b/c", want: unmatchedRoute},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				r := httptest.NewRequest(http.MethodGet, tt.path, nil)
				r.Pattern = tt.pattern
				if got := routeLabel(r); got != tt.want {
					t.Errorf("routeLabel() = %v, want %v", got, tt.want)
				}
			})
		}
	})
}

func TestObservers(t *testing.T) {
	before := testutil.ToFloat64(TokenOperationsTotal.WithLabelValues("refresh", "error"))
	ObserveTokenOperation("refresh", errors.New("boom"))
	if got := testutil.ToFloat64(TokenOperationsTotal.WithLabelValues("refresh", "error")); got != before+1 {
		t.Errorf("expected refresh error counter to increase, got %v", got)
	}

	ObserveRemoteCall("me", "200")
	if got := testutil.ToFloat64(RemoteCallsTotal.WithLabelValues("me", "200")); got < 1 {
		t.Errorf("expected remote call counter to be recorded, got %v", got)
	}

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "discover_spotify_calls_total") {
		t.Error("expected exposition to include discover_spotify_calls_total")
	}
}

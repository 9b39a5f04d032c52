package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/view", "/api/view"},
		{"/datasets/abc-123/report", "/datasets/:id/report"},
		{"/files/xyz", "/files/:id"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordBackendCall(t *testing.T) {
	before := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("/analytics/revenue", "error"))

	RecordBackendCall("/analytics/revenue", errors.New("timeout"), 10*time.Millisecond)

	after := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("/analytics/revenue", "error"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}
}

func TestRecordSectionFailure(t *testing.T) {
	before := testutil.ToFloat64(SectionFailuresTotal.WithLabelValues("roi"))
	RecordSectionFailure("roi")
	if got := testutil.ToFloat64(SectionFailuresTotal.WithLabelValues("roi")) - before; got != 1 {
		t.Errorf("section failure delta = %v, want 1", got)
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	handler := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/view", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/view", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/view", "418"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestHTTPMetricsMiddleware_SkipsMetricsPath(t *testing.T) {
	called := false
	handler := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, path := range []string{"/metrics", "/health", "/health/live"} {
		called = false
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		if !called {
			t.Errorf("next handler should still be called for %s", path)
		}
	}
}

func TestNewRecorderReusesRecorder(t *testing.T) {
	rec := NewRecorder(httptest.NewRecorder())
	if NewRecorder(rec) != rec {
		t.Error("NewRecorder should not wrap a Recorder twice")
	}

	rec.WriteHeader(http.StatusAccepted)
	_, _ = rec.Write([]byte("abc"))
	if rec.Status != http.StatusAccepted || rec.Size != 3 {
		t.Errorf("Recorder = %d/%d, want 202/3", rec.Status, rec.Size)
	}
}

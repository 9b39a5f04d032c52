package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Recorder remembers the status code and body size a handler wrote.
type Recorder struct {
	http.ResponseWriter
	Status int
	Size   int
}

func NewRecorder(w http.ResponseWriter) *Recorder {
	if rec, ok := w.(*Recorder); ok {
		return rec
	}
	return &Recorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *Recorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *Recorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.Size += n
	return n, err
}

func (r *Recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// unobserved paths are scraped or polled often enough to drown real traffic.
func unobserved(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/health/")
}

func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if unobserved(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		path := NormalizePath(r.URL.Path)

		inFlight := HTTPRequestsInFlight.WithLabelValues(r.Method)
		inFlight.Inc()
		defer inFlight.Dec()

		rec := NewRecorder(w)
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.Status)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		HTTPResponseSize.WithLabelValues(r.Method, path, status).Observe(float64(rec.Size))
	})
}

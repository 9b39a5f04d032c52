// Package web serves the dashboard over HTTP: the current view, the
// dataset chat and the downloadable report.
package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/dashboard"
	"github.com/abdul-hamid-achik/tally/internal/format"
	"github.com/abdul-hamid-achik/tally/internal/health"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/tracing"
)

const defaultMaxUploadSize = 100 << 20

type Config struct {
	Shell       *dashboard.Shell
	Chat        *chat.Session
	Health      *health.Checker
	Formatter   *format.Formatter
	Charts      bool
	ServiceName string

	MaxUploadSize int64
}

func NewRouter(cfg *Config) http.Handler {
	if cfg.Formatter == nil {
		cfg.Formatter = format.Default()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tally"
	}
	h := &handlers{cfg: cfg}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", health.LivenessHandler())
	if cfg.Health != nil {
		mux.HandleFunc("GET /health", health.ReadinessHandler(cfg.Health))
	} else {
		mux.HandleFunc("GET /health", health.LivenessHandler())
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/view", h.getView)
	mux.HandleFunc("POST /api/refresh", h.refresh)
	mux.HandleFunc("POST /api/upload", h.upload)

	mux.HandleFunc("GET /api/chat", h.getChat)
	mux.HandleFunc("POST /api/chat", h.sendChat)
	mux.HandleFunc("DELETE /api/chat", h.clearChat)

	mux.HandleFunc("GET /report", h.report)

	var handler http.Handler = mux
	handler = tracing.HTTPMiddleware(cfg.ServiceName)(handler)
	handler = metrics.HTTPMetricsMiddleware(handler)
	handler = RequestLogger(handler)
	handler = RequestID(handler)
	handler = Recovery(handler)
	return handler
}

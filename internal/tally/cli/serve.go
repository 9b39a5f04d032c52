package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/dashboard"
	"github.com/abdul-hamid-achik/tally/internal/health"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/tally/version"
	"github.com/abdul-hamid-achik/tally/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API, chat and report over HTTP",
	Long: `Run a local HTTP server exposing the current view, the dataset chat,
the HTML report, health checks and Prometheus metrics.

Examples:
  tally serve
  tally serve --addr :8090 --charts`,
	RunE: runServe,
}

var (
	serveAddr   string
	serveCharts bool
)

const shutdownTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: serve_addr)")
	serveCmd.Flags().BoolVar(&serveCharts, "charts", false, "Embed charts in downloaded reports")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	log := logger.Default()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServeAddr
	}

	checker := health.NewChecker(apiClient)

	store, closeStore, err := openChatStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	if rs, ok := store.(*chat.RedisStore); ok {
		checker = checker.WithRedis(rs.Client())
	}

	if cfg.StorageEnabled() {
		s, err := openStorage(ctx)
		if err != nil {
			log.Warn("report storage unavailable", "error", err.Error())
		} else {
			checker = checker.WithStorage(s)
		}
	}

	shell := dashboard.New(apiClient, dashboard.WithForecastDays(cfg.ForecastDays))
	session := newSession(store)
	if id := currentDataset(); id != "" {
		shell.SetDataset(id)
		refreshCtx, cancel := context.WithTimeout(logger.WithDatasetID(ctx, id), cfg.GetTimeout("refresh"))
		shell.Refresh(refreshCtx)
		cancel()
		if err := session.Open(ctx, id); err != nil {
			log.Warn("chat history unavailable", "dataset_id", id, "error", err.Error())
		}
	}

	metrics.SetAppInfo(version.Short(), cfg.APIURL)

	server := &http.Server{
		Addr: addr,
		Handler: web.NewRouter(&web.Config{
			Shell:       shell,
			Chat:        session,
			Health:      checker,
			Formatter:   newFormatter(),
			Charts:      serveCharts,
			ServiceName: "tally",
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GetTimeout("refresh"),
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("dashboard server listening", "addr", addr)
		serverErr <- server.ListenAndServe()
	}()
	printer.Success("Serving on http://%s", addr)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
		return err
	}
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/dashboard"
	"github.com/abdul-hamid-achik/tally/internal/format"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/storage"
	"github.com/abdul-hamid-achik/tally/internal/tally/output"
)

func newFormatter() *format.Formatter {
	return format.New(cfg.Locale, format.WithCurrencySymbol(cfg.CurrencySymbol))
}

// newShell builds a dashboard whose stage changes drive sp. sp may be nil.
func newShell(sp *output.Spinner) *dashboard.Shell {
	opts := []dashboard.Option{dashboard.WithForecastDays(cfg.ForecastDays)}
	if sp != nil {
		opts = append(opts, dashboard.WithProgress(func(st dashboard.Stage) {
			sp.Update(stageLabel(st))
		}))
	}
	return dashboard.New(apiClient, opts...)
}

func stageLabel(st dashboard.Stage) string {
	switch st {
	case dashboard.StageUploading:
		return "Uploading file..."
	case dashboard.StageFetching:
		return "Fetching analytics..."
	case dashboard.StageNormalizing:
		return "Building dashboard..."
	default:
		return "Done"
	}
}

// loadView refreshes the analytics view for the current dataset.
func loadView(ctx context.Context) (*dashboard.Shell, error) {
	id := currentDataset()
	if id == "" {
		return nil, apperror.ErrNoDataset
	}

	ctx, cancel := context.WithTimeout(logger.WithDatasetID(ctx, id), cfg.GetTimeout("refresh"))
	defer cancel()

	sp := output.NewSpinner("Fetching analytics...", output.ProgressWithQuiet(quietMode || jsonOutput))
	shell := newShell(sp)
	shell.SetDataset(id)
	shell.Refresh(ctx)
	sp.Finish()
	return shell, nil
}

// openChatStore uses Redis when configured and process memory otherwise.
// The returned close function is never nil.
func openChatStore(ctx context.Context) (chat.Store, func() error, error) {
	if cfg.Chat.RedisURL == "" {
		return chat.NewMemoryStore(), func() error { return nil }, nil
	}
	store, err := chat.OpenRedisStore(ctx, cfg.Chat.RedisURL, cfg.ChatTTL())
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func newSession(store chat.Store) *chat.Session {
	var opts []chat.Option
	if cfg.Chat.Greeting != "" {
		opts = append(opts, chat.WithGreeting(cfg.Chat.Greeting))
	}
	if cfg.Chat.KeyPrefix != "" {
		opts = append(opts, chat.WithKeyPrefix(cfg.Chat.KeyPrefix))
	}
	return chat.NewSession(apiClient, store, opts...)
}

// openStorage connects to the report archive bucket.
func openStorage(ctx context.Context) (*metrics.InstrumentedStorage, error) {
	if !cfg.StorageEnabled() {
		return nil, fmt.Errorf("report storage is not configured; run 'tally config set storage.endpoint <host:port>'")
	}
	s, err := storage.NewMinIOStorage(&storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.BucketName(),
		UseSSL:    cfg.Storage.UseSSL,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		return nil, err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return metrics.NewInstrumentedStorage(s), nil
}

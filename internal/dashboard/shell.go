// Package dashboard owns the current dataset and its analytics view.
package dashboard

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/abdul-hamid-achik/tally/internal/analytics"
	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/fanout"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/tally/client"
	"github.com/abdul-hamid-achik/tally/internal/tracing"
)

const DefaultForecastDays = 30

// Section names, also used as metric labels.
const (
	SectionRevenue         = "revenue"
	SectionChannels        = "channels"
	SectionRetention       = "retention"
	SectionSuspicious      = "suspicious"
	SectionROI             = "roi"
	SectionForecast        = "forecast"
	SectionCancellation    = "cancellation"
	SectionRecommendations = "recommendations"
)

type Stage string

const (
	StageUploading   Stage = "uploading"
	StageFetching    Stage = "fetching"
	StageNormalizing Stage = "normalizing"
	StageDone        Stage = "done"
)

// Gateway is the subset of the backend client the dashboard needs.
type Gateway interface {
	Upload(ctx context.Context, filePath string) (*client.UploadResponse, error)
	UploadReader(ctx context.Context, r io.Reader, filename string) (*client.UploadResponse, error)
	Revenue(ctx context.Context) (client.Payload, error)
	Channels(ctx context.Context) (client.Payload, error)
	Retention(ctx context.Context) (client.Payload, error)
	ROI(ctx context.Context) (client.Payload, error)
	Recommendations(ctx context.Context) (client.Payload, error)
	Suspicious(ctx context.Context, filter client.SuspiciousFilter) (client.Payload, error)
	Forecast(ctx context.Context, req client.ForecastRequest) (client.Payload, error)
	CancellationProbability(ctx context.Context, req client.CancellationRequest) (client.Payload, error)
}

type Option func(*Shell)

// WithProgress reports stage transitions of Upload and Refresh.
func WithProgress(fn func(Stage)) Option {
	return func(s *Shell) {
		s.progress = fn
	}
}

func WithForecastDays(days int) Option {
	return func(s *Shell) {
		if days > 0 {
			s.forecastDays = days
		}
	}
}

func WithMergeOptions(opts ...analytics.MergeOption) Option {
	return func(s *Shell) {
		s.mergeOpts = append(s.mergeOpts, opts...)
	}
}

// Shell holds the dataset id and the view built for it. Views are replaced
// whole, never modified, so a caller may keep using one it already has.
type Shell struct {
	gateway      Gateway
	progress     func(Stage)
	forecastDays int
	mergeOpts    []analytics.MergeOption

	// refreshMu serializes refreshes so an older one cannot overwrite a
	// newer view.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	datasetID   string
	view        *analytics.AnalyticsView
	unavailable []string
}

func New(gateway Gateway, opts ...Option) *Shell {
	s := &Shell{
		gateway:      gateway,
		progress:     func(Stage) {},
		forecastDays: DefaultForecastDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View returns the current view, or nil before the first refresh.
func (s *Shell) View() *analytics.AnalyticsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Unavailable lists the sections that failed in the last refresh, in
// request order.
func (s *Shell) Unavailable() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.unavailable...)
}

// Sections is the number of sections a refresh requests.
func (s *Shell) Sections() int {
	return len(s.tasks())
}

func (s *Shell) DatasetID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasetID
}

// SetDataset points the shell at an already uploaded dataset and drops the
// view built for the previous one.
func (s *Shell) SetDataset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.datasetID {
		s.view = nil
		s.unavailable = nil
	}
	s.datasetID = id
}

// Upload sends a CSV file to the backend and refreshes the view for it. On
// failure the shell keeps its previous dataset and view.
func (s *Shell) Upload(ctx context.Context, path string) (*client.UploadResponse, error) {
	if err := checkCSV(path); err != nil {
		return nil, err
	}
	return s.upload(ctx, func(ctx context.Context) (*client.UploadResponse, error) {
		return s.gateway.Upload(ctx, path)
	})
}

// UploadReader is Upload for content that is not on disk.
func (s *Shell) UploadReader(ctx context.Context, r io.Reader, filename string) (*client.UploadResponse, error) {
	if err := checkCSV(filename); err != nil {
		return nil, err
	}
	return s.upload(ctx, func(ctx context.Context) (*client.UploadResponse, error) {
		return s.gateway.UploadReader(ctx, r, filename)
	})
}

func (s *Shell) upload(ctx context.Context, send func(context.Context) (*client.UploadResponse, error)) (*client.UploadResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "dashboard.upload")
	defer span.End()

	s.progress(StageUploading)
	resp, err := send(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	s.SetDataset(resp.FileID)
	s.Refresh(logger.WithDatasetID(ctx, resp.FileID))
	return resp, nil
}

func checkCSV(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return apperror.WithMessage(apperror.ErrInvalidFile, "Only .csv files are supported", nil)
	}
	return nil
}

// Refresh fetches every section concurrently and installs a new view. A
// failed section is logged and left empty; Refresh itself cannot fail.
func (s *Shell) Refresh(ctx context.Context) *analytics.AnalyticsView {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "dashboard.refresh")
	defer span.End()
	start := time.Now()

	s.progress(StageFetching)
	results := fanout.Map(ctx, s.tasks()...)

	log := logger.FromContext(ctx)
	var unavailable []string
	payload := func(section string) client.Payload {
		r := results[section]
		if !r.OK() {
			unavailable = append(unavailable, section)
			log.Warn("analytics section unavailable",
				"section", section,
				"error", r.Err.Error(),
			)
			metrics.RecordSectionFailure(section)
			return nil
		}
		return r.Value
	}

	s.progress(StageNormalizing)
	raw := analytics.RawResponses{
		Revenue:         payload(SectionRevenue),
		Channels:        payload(SectionChannels),
		Retention:       payload(SectionRetention),
		Suspicious:      payload(SectionSuspicious),
		ROI:             payload(SectionROI),
		Forecast:        payload(SectionForecast),
		Cancellation:    payload(SectionCancellation),
		Recommendations: payload(SectionRecommendations),
	}
	view := analytics.Merge(raw, s.mergeOpts...)

	s.mu.Lock()
	s.view = view
	s.unavailable = unavailable
	s.mu.Unlock()

	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	tracing.AddSpanAttributes(ctx,
		attribute.Int("tally.anomalies", len(view.Anomalies)),
		attribute.Int("tally.channels", len(view.RevenueByChannel)),
	)
	s.progress(StageDone)
	return view
}

func (s *Shell) tasks() []fanout.Task[client.Payload] {
	gw := s.gateway
	forecast := client.ForecastRequest{DaysAhead: s.forecastDays}

	return []fanout.Task[client.Payload]{
		{Name: SectionRevenue, Run: gw.Revenue},
		{Name: SectionChannels, Run: gw.Channels},
		{Name: SectionRetention, Run: gw.Retention},
		{Name: SectionSuspicious, Run: func(ctx context.Context) (client.Payload, error) {
			return gw.Suspicious(ctx, client.SuspiciousFilter{})
		}},
		{Name: SectionROI, Run: gw.ROI},
		{Name: SectionForecast, Run: func(ctx context.Context) (client.Payload, error) {
			return gw.Forecast(ctx, forecast)
		}},
		{Name: SectionCancellation, Run: func(ctx context.Context) (client.Payload, error) {
			return gw.CancellationProbability(ctx, client.RepresentativeTransaction())
		}},
		{Name: SectionRecommendations, Run: gw.Recommendations},
	}
}

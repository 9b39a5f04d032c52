// Package report renders the analytics view and chat transcript into a
// single self-contained HTML document.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/tally/internal/analytics"
	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/format"
	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
)

const (
	contentType = "text/html; charset=utf-8"

	chartWidth  = 800
	chartHeight = 320
)

type Data struct {
	View        *analytics.AnalyticsView
	Transcript  []chat.Message
	GeneratedAt time.Time
	DatasetID   string
}

type options struct {
	charts    bool
	formatter *format.Formatter
}

type Option func(*options)

// WithCharts embeds revenue and channel charts as inline PNG images.
func WithCharts(enabled bool) Option {
	return func(o *options) {
		o.charts = enabled
	}
}

func WithFormatter(f *format.Formatter) Option {
	return func(o *options) {
		if f != nil {
			o.formatter = f
		}
	}
}

type summaryCard struct {
	Title string
	Value string
	Alert bool
}

type channelRow struct {
	Channel      string
	Revenue      string
	Transactions string
	Customers    string
	ROI          string
}

type anomalyRow struct {
	TransactionID string
	Date          string
	Amount        string
	Score         string
	RiskLevel     string
	Reason        string
}

type recommendationRow struct {
	Title          string
	Description    string
	Type           string
	Priority       string
	ExpectedImpact string
	Benefit        string
	Effort         string
}

type messageRow struct {
	Role      string
	Author    string
	Content   template.HTML
	Timestamp string
}

type page struct {
	GeneratedAt     string
	DatasetID       string
	Summary         []summaryCard
	Channels        []channelRow
	Anomalies       []anomalyRow
	AnomalyTotal    int
	AnomalyCaption  string
	Recommendations []recommendationRow
	Messages        []messageRow
	RevenueChart    template.URL
	ChannelChart    template.URL
}

// Render writes the report for data to w.
func Render(w io.Writer, data Data, opts ...Option) error {
	o := options{formatter: format.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	p := build(data, o.formatter)
	if o.charts {
		p.RevenueChart = chartURL(analytics.RevenueTrendChart, data.View)
		p.ChannelChart = chartURL(analytics.ChannelChart, data.View)
	}

	if err := reportTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// Bytes renders the report into memory.
func Bytes(data Data, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, data, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename is the conventional file name of a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("analytics_report_%s.html", t.Format("2006-01-02"))
}

// WriteFile renders the report into dir and returns the file's path.
func WriteFile(dir string, data Data, opts ...Option) (string, error) {
	html, err := Bytes(data, opts...)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, Filename(generatedAt(data)))
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	metrics.RecordReport("file")
	return path, nil
}

func generatedAt(data Data) time.Time {
	if data.GeneratedAt.IsZero() {
		return time.Now()
	}
	return data.GeneratedAt
}

func build(data Data, f *format.Formatter) page {
	view := data.View
	if view == nil {
		view = &analytics.AnalyticsView{}
	}

	p := page{
		GeneratedAt: f.DateTime(generatedAt(data)),
		DatasetID:   data.DatasetID,
		Summary: []summaryCard{
			{Title: "Total revenue", Value: f.Currency(view.Summary.TotalRevenue)},
			{Title: "Transactions", Value: f.Number(float64(view.Summary.TotalTransactions))},
			{Title: "Active customers", Value: f.Number(float64(view.Summary.ActiveCustomers))},
			{Title: "Average transaction", Value: f.Currency(view.Summary.AvgTransactionValue)},
			{Title: "Cancellation rate", Value: f.Percentage(view.Summary.CancellationRate), Alert: view.Summary.CancellationRate > 10},
		},
	}

	for _, c := range analytics.TopChannels(view.RevenueByChannel, analytics.ReportChannels) {
		p.Channels = append(p.Channels, channelRow{
			Channel:      c.Channel,
			Revenue:      f.Currency(c.Revenue),
			Transactions: f.Number(float64(c.Transactions)),
			Customers:    f.Number(float64(c.Customers)),
			ROI:          f.Percentage(c.ROI),
		})
	}

	shown, total := analytics.AnomalyPage(view.Anomalies)
	p.AnomalyTotal = total
	p.AnomalyCaption = analytics.ShowingCaption(len(shown), total)
	for _, a := range shown {
		level := a.RiskLevel
		if !level.Valid() {
			level = analytics.RiskMedium
		}
		p.Anomalies = append(p.Anomalies, anomalyRow{
			TransactionID: a.TransactionID,
			Date:          f.DateString(a.Date),
			Amount:        f.Currency(a.Amount),
			Score:         f.Score(a.AnomalyScore),
			RiskLevel:     string(level),
			Reason:        a.Reason,
		})
	}

	for _, r := range view.Recommendations {
		priority := string(r.Priority)
		if priority == "" {
			priority = string(analytics.PriorityMedium)
		}
		p.Recommendations = append(p.Recommendations, recommendationRow{
			Title:          r.Title,
			Description:    r.Description,
			Type:           string(r.Type),
			Priority:       priority,
			ExpectedImpact: r.ExpectedImpact,
			Benefit:        r.EstimatedBenefit,
			Effort:         string(r.ImplementationEffort),
		})
	}

	// The first message is the seeded greeting.
	if len(data.Transcript) > 1 {
		for _, m := range data.Transcript[1:] {
			row := messageRow{
				Role:      string(m.Role),
				Author:    "AI assistant",
				Content:   Markdown(m.Content),
				Timestamp: f.DateTime(m.Timestamp),
			}
			if m.Role == chat.RoleUser {
				row.Author = "User"
				row.Content = PlainText(m.Content)
			}
			p.Messages = append(p.Messages, row)
		}
	}
	return p
}

func chartURL(render func(*analytics.AnalyticsView, int, int) ([]byte, error), view *analytics.AnalyticsView) template.URL {
	png, err := render(view, chartWidth, chartHeight)
	if err != nil {
		logger.Default().Warn("skipping report chart", "error", err.Error())
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

func upper(s string) string {
	return strings.ToUpper(s)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"upper": upper,
}).Parse(reportHTML))

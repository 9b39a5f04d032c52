package analytics

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

type ExportData struct {
	*AnalyticsView
	ExportedAt time.Time `json:"exported_at"`
}

// Export renders the view in the requested format.
func Export(view *AnalyticsView, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return ExportJSON(view)
	case ExportFormatCSV:
		return ExportCSV(view)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func ExportJSON(view *AnalyticsView) ([]byte, error) {
	if view == nil {
		view = &AnalyticsView{}
	}
	export := ExportData{
		AnalyticsView: view,
		ExportedAt:    time.Now().UTC(),
	}
	return json.MarshalIndent(export, "", "  ")
}

type csvWriter struct {
	w   *csv.Writer
	err error
}

func (c *csvWriter) row(fields ...string) {
	if c.err != nil {
		return
	}
	c.err = c.w.Write(fields)
}

func (c *csvWriter) section(title string, header ...string) {
	c.row("", "")
	c.row(title, "")
	c.row(header...)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func count(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ExportCSV(view *AnalyticsView) ([]byte, error) {
	if view == nil {
		view = &AnalyticsView{}
	}

	var buf bytes.Buffer
	c := &csvWriter{w: csv.NewWriter(&buf)}

	c.row("Metric", "Value")
	c.row("Total Revenue", num(view.Summary.TotalRevenue))
	c.row("Total Transactions", count(view.Summary.TotalTransactions))
	c.row("Active Customers", count(view.Summary.ActiveCustomers))
	c.row("Average Transaction", num(view.Summary.AvgTransactionValue))
	c.row("Cancellation Rate", fmt.Sprintf("%.1f%%", view.Summary.CancellationRate))

	c.section("Revenue Trend", "Date", "Revenue", "Transactions")
	for _, p := range view.RevenueTrend {
		c.row(p.Date, num(p.Revenue), count(p.TransactionsCount))
	}

	c.section("Channels", "Channel", "Revenue", "Transactions", "Customers", "ROI", "Conversion Rate")
	for _, ch := range view.RevenueByChannel {
		c.row(ch.Channel, num(ch.Revenue), count(ch.Transactions), count(ch.Customers),
			fmt.Sprintf("%.1f%%", ch.ROI), fmt.Sprintf("%.1f%%", ch.ConversionRate))
	}

	c.section("Cohorts", "Cohort", "Period", "Retention", "Customers")
	for _, co := range view.CohortAnalysis {
		c.row(co.Cohort, strconv.Itoa(co.Period), fmt.Sprintf("%.1f%%", co.Retention), count(co.Customers))
	}

	c.section("ROI", "Source", "Investment", "Revenue", "ROI", "Profit")
	for _, r := range view.ROIMetrics {
		c.row(r.Source, num(r.Investment), num(r.Revenue), fmt.Sprintf("%.1f%%", r.ROI), num(r.Profit))
	}

	c.section("Anomalies", "Transaction", "Date", "Amount", "Anomaly Score", "Risk Level", "Reason")
	for _, a := range view.Anomalies {
		c.row(a.TransactionID, a.Date, num(a.Amount), num(a.AnomalyScore), string(a.RiskLevel), a.Reason)
	}

	c.section("Recommendations", "Title", "Type", "Priority", "Expected Impact", "Effort")
	for _, r := range view.Recommendations {
		c.row(r.Title, string(r.Type), string(r.Priority), r.ExpectedImpact, string(r.ImplementationEffort))
	}

	if c.err != nil {
		return nil, c.err
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/analytics"
	"github.com/abdul-hamid-achik/tally/internal/format"
	"github.com/abdul-hamid-achik/tally/internal/tally/output"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show dashboard analytics for the current dataset",
	Long: `Fetch every analytics section and print the dashboard.

Sections: summary, trend, channels, cohorts, roi, forecast, anomalies,
recommendations, all.

Examples:
  tally view
  tally view --section anomalies
  tally view --export csv -o dashboard.csv
  tally view --json | jq .summary`,
	RunE: runView,
}

var (
	viewSection string
	viewExport  string
	viewOutput  string
)

var viewSections = []string{"summary", "trend", "channels", "cohorts", "roi", "forecast", "anomalies", "recommendations"}

func init() {
	viewCmd.Flags().StringVarP(&viewSection, "section", "s", "summary", "Section to show, or 'all'")
	viewCmd.Flags().StringVar(&viewExport, "export", "", "Export the whole view as json or csv")
	viewCmd.Flags().StringVarP(&viewOutput, "output", "o", "", "Export destination (default: stdout)")
}

func runView(cmd *cobra.Command, args []string) error {
	sections, err := selectSections(viewSection)
	if err != nil {
		return err
	}

	exportFormat := analytics.ExportFormat(strings.ToLower(viewExport))
	if viewExport != "" && exportFormat != analytics.ExportFormatJSON && exportFormat != analytics.ExportFormatCSV {
		return fmt.Errorf("unsupported export format %q (want json or csv)", viewExport)
	}

	shell, err := loadView(GetContext())
	if err != nil {
		return err
	}
	view := shell.View()

	if viewExport != "" {
		return exportView(view, exportFormat)
	}
	if jsonOutput {
		return printer.JSON(view)
	}

	for _, section := range shell.Unavailable() {
		printer.Warn("%s unavailable", section)
	}

	f := newFormatter()
	for _, s := range sections {
		printSection(s, view, f)
	}
	return nil
}

func selectSections(name string) ([]string, error) {
	name = strings.ToLower(name)
	if name == "all" {
		return viewSections, nil
	}
	for _, s := range viewSections {
		if s == name {
			return []string{s}, nil
		}
	}
	return nil, fmt.Errorf("unknown section %q (want one of %s, all)", name, strings.Join(viewSections, ", "))
}

func exportView(view *analytics.AnalyticsView, f analytics.ExportFormat) error {
	data, err := analytics.Export(view, f)
	if err != nil {
		return err
	}
	if viewOutput == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(viewOutput, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	printer.Success("Exported %s to %s", f, viewOutput)
	return nil
}

func printSection(name string, view *analytics.AnalyticsView, f *format.Formatter) {
	switch name {
	case "summary":
		printSummary(view, f)
	case "trend":
		printTrend(view, f)
	case "channels":
		printChannels(view, f)
	case "cohorts":
		printCohorts(view, f)
	case "roi":
		printROI(view, f)
	case "forecast":
		printForecast(view, f)
	case "anomalies":
		printAnomalies(view, f)
	case "recommendations":
		printRecommendations(view)
	}
}

func printSummary(view *analytics.AnalyticsView, f *format.Formatter) {
	s := view.Summary
	printer.Section("Summary")
	printer.KeyValue("Total revenue", f.Currency(s.TotalRevenue))
	printer.KeyValue("Transactions", f.Number(float64(s.TotalTransactions)))
	printer.KeyValue("Active customers", f.Number(float64(s.ActiveCustomers)))
	printer.KeyValue("Average transaction", f.Currency(s.AvgTransactionValue))
	printer.KeyValue("Cancellation rate", f.Percentage(s.CancellationRate))
}

func newSectionTable(title string, headers ...string) *output.Table {
	printer.Section(title)
	return output.NewTable(headers, quietMode)
}

func printTrend(view *analytics.AnalyticsView, f *format.Formatter) {
	if len(view.RevenueTrend) == 0 {
		printer.Section("Revenue trend")
		printer.Info("No revenue data")
		return
	}
	t := newSectionTable("Revenue trend", "Date", "Revenue", "Transactions")
	t.AlignRight(1, 2)
	for _, p := range view.RevenueTrend {
		t.Append([]string{f.DateString(p.Date), f.Currency(p.Revenue), f.Number(float64(p.TransactionsCount))})
	}
	t.Render()
}

func printChannels(view *analytics.AnalyticsView, f *format.Formatter) {
	if len(view.RevenueByChannel) == 0 {
		printer.Section("Channels")
		printer.Info("No channel data")
		return
	}
	t := newSectionTable("Channels", "Channel", "Revenue", "Transactions", "Customers", "ROI", "Conversion")
	t.AlignRight(1, 2, 3, 4, 5)
	for _, c := range view.RevenueByChannel {
		t.Append([]string{
			c.Channel,
			f.Currency(c.Revenue),
			f.Number(float64(c.Transactions)),
			f.Number(float64(c.Customers)),
			f.Percentage(c.ROI),
			f.Percentage(c.ConversionRate),
		})
	}
	t.Render()
}

func printCohorts(view *analytics.AnalyticsView, f *format.Formatter) {
	if len(view.CohortAnalysis) == 0 {
		printer.Section("Retention")
		printer.Info("No retention data")
		return
	}
	t := newSectionTable("Retention", "Cohort", "Period", "Retention", "Customers")
	t.AlignRight(1, 2, 3)
	for _, c := range view.CohortAnalysis {
		t.Append([]string{c.Cohort, fmt.Sprint(c.Period), f.Percentage(c.Retention), f.Number(float64(c.Customers))})
	}
	t.Render()
}

func printROI(view *analytics.AnalyticsView, f *format.Formatter) {
	if len(view.ROIMetrics) == 0 {
		printer.Section("ROI")
		printer.Info("No ROI data")
		return
	}
	t := newSectionTable("ROI", "Source", "Investment", "Revenue", "Profit", "ROI")
	t.AlignRight(1, 2, 3, 4)
	for _, m := range view.ROIMetrics {
		t.Append([]string{m.Source, f.Currency(m.Investment), f.Currency(m.Revenue), f.Currency(m.Profit), f.Percentage(m.ROI)})
	}
	t.Render()
}

func printForecast(view *analytics.AnalyticsView, f *format.Formatter) {
	if view.Forecasts == nil {
		printer.Section("Forecast")
		printer.Info("Forecast unavailable")
		return
	}
	t := newSectionTable("Forecast", "Date", "Predicted", "Lower", "Upper")
	t.AlignRight(1, 2, 3)
	bound := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return f.Currency(*v)
	}
	for _, p := range view.Forecasts.RevenueForecast {
		t.Append([]string{f.DateString(p.Date), f.Currency(p.Predicted), bound(p.LowerBound), bound(p.UpperBound)})
	}
	t.Render()
	printer.KeyValue("Cancellation probability", f.Percentage(view.Forecasts.CancellationProbability))
}

func printAnomalies(view *analytics.AnalyticsView, f *format.Formatter) {
	shown, total := analytics.AnomalyPage(view.Anomalies)
	if total == 0 {
		printer.Section("Anomalies")
		printer.Info("No anomalies detected")
		return
	}
	t := newSectionTable(fmt.Sprintf("Anomalies (%d)", total), "Transaction", "Date", "Amount", "Score", "Risk", "Reason")
	t.AlignRight(2, 3)
	for _, a := range shown {
		t.Append([]string{
			a.TransactionID,
			f.DateString(a.Date),
			f.Currency(a.Amount),
			f.Score(a.AnomalyScore),
			strings.ToUpper(string(a.RiskLevel)),
			a.Reason,
		})
	}
	t.Render()
	if caption := analytics.ShowingCaption(len(shown), total); caption != "" {
		printer.Info("%s", caption)
	}
}

func printRecommendations(view *analytics.AnalyticsView) {
	printer.Section("Recommendations")
	if len(view.Recommendations) == 0 {
		printer.Info("No recommendations")
		return
	}
	for _, r := range view.Recommendations {
		printer.Printf("  [%s] %s\n", strings.ToUpper(string(r.Priority)), r.Title)
		if r.Description != "" {
			printer.Indent("%s", r.Description)
		}
		printer.Indent("Impact: %s, benefit: %s, effort: %s", r.ExpectedImpact, r.EstimatedBenefit, r.ImplementationEffort)
	}
}

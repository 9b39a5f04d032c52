package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a self-contained HTML report",
	Long: `Render the dashboard and the chat transcript into one HTML file
that opens offline and can be shared as-is.

Examples:
  tally report
  tally report -o reports/ --charts --open
  tally report --archive            # also upload to report storage
  tally report list                 # archived reports for this dataset
  tally report prune --older-than 168h`,
	RunE: runReport,
}

var (
	reportDir     string
	reportCharts  bool
	reportOpen    bool
	reportArchive bool
)

type reportResult struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

func init() {
	reportCmd.Flags().StringVarP(&reportDir, "output", "o", "", "Directory for the report (default: report_dir or .)")
	reportCmd.Flags().BoolVar(&reportCharts, "charts", false, "Embed revenue and channel charts")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "Open the report in a browser")
	reportCmd.Flags().BoolVar(&reportArchive, "archive", false, "Upload the report to storage and print a link")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	shell, err := loadView(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := openChatStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	session := newSession(store)
	if err := session.Open(ctx, shell.DatasetID()); err != nil {
		printer.Warn("Chat history unavailable: %v", err)
	}

	data := report.Data{
		View:        shell.View(),
		Transcript:  session.Messages(),
		GeneratedAt: time.Now(),
		DatasetID:   shell.DatasetID(),
	}

	dir := reportDir
	if dir == "" {
		dir = cfg.ReportDir
	}
	path, err := report.WriteFile(dir, data, report.WithFormatter(newFormatter()), report.WithCharts(reportCharts))
	if err != nil {
		return err
	}
	result := reportResult{Path: path}

	if reportArchive {
		url, err := archiveReport(path, data)
		if err != nil {
			return err
		}
		result.URL = url
	}

	if reportOpen {
		if err := browser.OpenFile(path); err != nil {
			printer.Warn("Could not open browser: %v", err)
		}
	}

	if jsonOutput {
		return printer.JSON(result)
	}
	printer.Success("Report written to %s", path)
	if result.URL != "" {
		printer.KeyValue("Link", result.URL)
	}
	return nil
}

func archiveReport(path string, data report.Data) (string, error) {
	ctx := GetContext()
	store, err := openStorage(ctx)
	if err != nil {
		return "", err
	}

	html, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return report.Archive(ctx, store, report.ArchiveKey(data.DatasetID, data.GeneratedAt), html, cfg.PresignExpiry())
}

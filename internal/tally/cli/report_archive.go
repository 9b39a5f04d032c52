package cli

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/report"
	"github.com/abdul-hamid-achik/tally/internal/storage"
)

const defaultRetention = 30 * 24 * time.Hour

var (
	archiveAll       bool
	archiveOlderThan time.Duration
)

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived reports",
	Long: `List reports uploaded with --archive, newest first. Only the current
dataset is shown unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: runReportList,
}

var reportFetchCmd = &cobra.Command{
	Use:   "fetch <key>",
	Short: "Download an archived report",
	Example: `  tally report fetch reports/ds-42/analytics_report_2024-06-01.html -o shared/`,
	Args:    cobra.ExactArgs(1),
	RunE:    runReportFetch,
}

var reportPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old archived reports",
	Example: `  tally report prune --older-than 168h
  tally report prune --all`,
	Args: cobra.NoArgs,
	RunE: runReportPrune,
}

type pruneResult struct {
	Removed []string `json:"removed"`
}

func init() {
	reportListCmd.Flags().BoolVar(&archiveAll, "all", false, "Include every dataset")
	reportPruneCmd.Flags().BoolVar(&archiveAll, "all", false, "Include every dataset")
	reportPruneCmd.Flags().DurationVar(&archiveOlderThan, "older-than", defaultRetention, "Remove reports last modified before this age")
	reportFetchCmd.Flags().StringVarP(&reportDir, "output", "o", "", "Directory for the report (default: report_dir or .)")

	reportCmd.AddCommand(reportListCmd, reportFetchCmd, reportPruneCmd)
}

// archiveScope is the dataset whose archives a command touches; empty means
// all of them.
func archiveScope() string {
	if archiveAll {
		return ""
	}
	return currentDataset()
}

func runReportList(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}

	objs, err := report.Archives(ctx, store, archiveScope())
	if err != nil {
		return err
	}
	if jsonOutput {
		if objs == nil {
			objs = []storage.Object{}
		}
		return printer.JSON(objs)
	}
	if len(objs) == 0 {
		printer.Info("No archived reports")
		return nil
	}

	f := newFormatter()
	table := newSectionTable("Archived reports", "Key", "Size", "Archived")
	table.AlignRight(1)
	for _, o := range objs {
		table.Append([]string{o.Key, humanize.Bytes(uint64(o.Size)), f.DateTime(o.LastModified)})
	}
	table.Render()
	return nil
}

func runReportFetch(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}

	dir := reportDir
	if dir == "" {
		dir = cfg.ReportDir
	}
	path, err := report.Fetch(ctx, store, args[0], dir)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printer.JSON(reportResult{Path: path})
	}
	printer.Success("Report saved to %s", path)
	return nil
}

func runReportPrune(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-archiveOlderThan)
	removed, err := report.Prune(ctx, store, archiveScope(), cutoff)
	if jsonOutput {
		if removed == nil {
			removed = []string{}
		}
		if jerr := printer.JSON(pruneResult{Removed: removed}); jerr != nil {
			return jerr
		}
		return err
	}
	for _, key := range removed {
		printer.Indent("%s", key)
	}
	if err != nil {
		return err
	}
	printer.Success("Removed %d archived %s", len(removed), english.PluralWord(len(removed), "report", ""))
	return nil
}

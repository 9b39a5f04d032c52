package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/metrics"
	"github.com/abdul-hamid-achik/tally/internal/tally/output"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file.csv]",
	Short: "Upload a transactions CSV and analyze it",
	Long: `Upload a CSV of transactions to the analytics backend.

The returned dataset id is remembered, so later commands work on it
without --dataset.

Examples:
  tally upload transactions.csv
  tally upload transactions.csv --json`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

type uploadResult struct {
	FileID      string   `json:"file_id"`
	Message     string   `json:"message,omitempty"`
	Unavailable []string `json:"unavailable_sections,omitempty"`
}

func runUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := GetContext()

	file, err := os.Open(path)
	if err != nil {
		return apperror.WithMessage(apperror.ErrInvalidFile, fmt.Sprintf("failed to open file: %v", err), err)
	}
	defer func() { _ = file.Close() }()

	var size int64
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}

	quiet := quietMode || jsonOutput
	bar := output.NewByteProgress(size, "Uploading", output.ProgressWithQuiet(quiet))
	sp := output.NewSpinner("Analyzing...", output.ProgressWithQuiet(quiet))
	shell := newShell(sp)

	resp, err := shell.UploadReader(ctx, io.TeeReader(file, bar), filepath.Base(path))
	bar.Finish()
	sp.Finish()
	metrics.RecordUpload(err, bar.Written())
	if err != nil {
		printer.Failed(filepath.Base(path), err)
		return err
	}

	if err := cfg.SetDataset(resp.FileID); err != nil {
		printer.Warn("Could not remember dataset: %v", err)
	}

	unavailable := shell.Unavailable()
	if jsonOutput {
		return printer.JSON(uploadResult{FileID: resp.FileID, Message: resp.Message, Unavailable: unavailable})
	}

	printer.Success("Uploaded %s", filepath.Base(path))
	printer.KeyValue("Dataset", resp.FileID)
	if resp.Message != "" {
		printer.KeyValue("Backend", resp.Message)
	}
	printer.Totals(shell.Sections()-len(unavailable), len(unavailable), "sections")
	for _, section := range unavailable {
		printer.Indent("%s unavailable", section)
	}
	if view := shell.View(); view != nil {
		printSummary(view, newFormatter())
	}
	return nil
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/logger"
	"github.com/abdul-hamid-achik/tally/internal/tally/client"
	"github.com/abdul-hamid-achik/tally/internal/tally/config"
	"github.com/abdul-hamid-achik/tally/internal/tally/output"
	"github.com/abdul-hamid-achik/tally/internal/tally/version"
	"github.com/abdul-hamid-achik/tally/internal/tracing"
)

var (
	jsonOutput  bool
	quietMode   bool
	logLevel    string
	datasetFlag string
	cfg         *config.Config
	apiClient   *client.Client
	printer     *output.Printer

	shutdownTracing = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "tally - transaction analytics from the terminal",
	Long: `tally is the command-line client for the transaction analytics backend.

Upload a CSV of transactions, browse revenue, channel, retention and
anomaly analytics, ask the AI assistant about the data and export a
self-contained HTML report.

Get started:
  tally upload transactions.csv    # Upload and analyze a dataset
  tally view                       # Show the dashboard summary
  tally chat "What grew last week?"
  tally report --open              # Write and open the HTML report`,
	Version: version.Full(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnvFile(config.EnvFile); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.InitWriter(os.Stderr, level)

		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
		)

		shutdownTracing, err = tracing.Init(GetContext(), &tracing.Config{
			ServiceName:    "tally",
			ServiceVersion: version.Short(),
			OTLPEndpoint:   cfg.Tracing.Endpoint,
			Enabled:        cfg.Tracing.Enabled,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Default().Warn("tracing disabled", "error", err.Error())
			shutdownTracing = func(context.Context) error { return nil }
		}

		apiClient = client.New(cfg.APIURL,
			client.WithTimeout(cfg.GetTimeout("http")),
			client.WithTransport(tracing.Transport(nil)),
		)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if stopSignals != nil {
			defer stopSignals()
		}
		return shutdownTracing(context.Background())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&datasetFlag, "dataset", "d", "", "Dataset id (default: last uploaded)")

	rootCmd.SetVersionTemplate("tally version {{.Version}}\n")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var (
	ctxOnce     sync.Once
	rootCtx     context.Context
	stopSignals context.CancelFunc
)

// GetContext returns the command context, cancelled on SIGINT or SIGTERM.
func GetContext() context.Context {
	ctxOnce.Do(func() {
		rootCtx, stopSignals = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	})
	return rootCtx
}

// currentDataset resolves --dataset against the remembered dataset.
func currentDataset() string {
	if datasetFlag != "" {
		return datasetFlag
	}
	return cfg.DatasetID
}

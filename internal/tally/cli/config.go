package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/tally/internal/tally/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and manage tally CLI configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  ` + strings.Join(config.Keys, "\n  ") + `

Examples:
  tally config set api_url http://analytics.internal:8000
  tally config set locale en
  tally config set chat.redis_url redis://localhost:6379/0`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}

func secret(v string) string {
	if v == "" {
		return ""
	}
	return "********"
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		return printer.JSON(map[string]any{
			"api_url":         cfg.APIURL,
			"dataset_id":      cfg.DatasetID,
			"locale":          cfg.Locale,
			"currency_symbol": cfg.CurrencySymbol,
			"log_level":       cfg.LogLevel,
			"forecast_days":   cfg.ForecastDays,
			"report_dir":      cfg.ReportDir,
			"serve_addr":      cfg.ServeAddr,
			"chat_persistent": cfg.Chat.RedisURL != "",
			"storage_enabled": cfg.StorageEnabled(),
			"tracing_enabled": cfg.Tracing.Enabled,
		})
	}

	printer.Section("Configuration")
	printer.KeyValue("API URL", cfg.APIURL)
	printer.KeyValue("Dataset", cfg.DatasetID)
	printer.KeyValue("Locale", cfg.Locale)
	printer.KeyValue("Currency", cfg.CurrencySymbol)
	printer.KeyValue("Log level", cfg.LogLevel)
	printer.KeyValue("Forecast days", fmt.Sprintf("%d", cfg.ForecastDays))
	printer.KeyValue("Serve address", cfg.ServeAddr)
	if cfg.ReportDir != "" {
		printer.KeyValue("Report dir", cfg.ReportDir)
	}

	printer.Section("Chat")
	if cfg.Chat.RedisURL != "" {
		printer.KeyValue("Redis", cfg.Chat.RedisURL)
		printer.KeyValue("TTL", cfg.ChatTTL().String())
	} else {
		printer.KeyValue("Store", "memory (not persisted)")
	}

	if cfg.StorageEnabled() {
		printer.Section("Report storage")
		printer.KeyValue("Endpoint", cfg.Storage.Endpoint)
		printer.KeyValue("Bucket", cfg.BucketName())
		printer.KeyValue("Access key", secret(cfg.Storage.AccessKey))
		printer.KeyValue("Link expiry", cfg.PresignExpiry().String())
	}

	if cfg.Tracing.Enabled {
		printer.Section("Tracing")
		printer.KeyValue("Endpoint", cfg.Tracing.Endpoint)
		printer.KeyValue("Sample rate", fmt.Sprintf("%g", cfg.Tracing.SampleRate))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if strings.HasSuffix(key, "secret_key") || strings.HasSuffix(key, "access_key") {
		value = secret(value)
	}
	printer.Success("Set %s = %s", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printer.JSON(map[string]string{"path": path})
	}

	printer.Println(path)
	return nil
}

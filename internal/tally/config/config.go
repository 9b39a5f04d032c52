package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL         string        `yaml:"api_url,omitempty"`
	DatasetID      string        `yaml:"dataset_id,omitempty"`
	Locale         string        `yaml:"locale,omitempty"`
	CurrencySymbol string        `yaml:"currency_symbol,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
	ForecastDays   int           `yaml:"forecast_days,omitempty"`
	ReportDir      string        `yaml:"report_dir,omitempty"`
	ServeAddr      string        `yaml:"serve_addr,omitempty"`
	Chat           ChatConfig    `yaml:"chat,omitempty"`
	Storage        StorageConfig `yaml:"storage,omitempty"`
	Tracing        TracingConfig `yaml:"tracing,omitempty"`
	Timeouts       TimeoutConfig `yaml:"timeouts,omitempty"`
}

// ChatConfig controls where transcripts live. An empty RedisURL keeps them in
// process memory for the lifetime of the command.
type ChatConfig struct {
	Greeting  string `yaml:"greeting,omitempty"`
	RedisURL  string `yaml:"redis_url,omitempty"`
	TTL       string `yaml:"ttl,omitempty"`
	KeyPrefix string `yaml:"key_prefix,omitempty"`
}

type StorageConfig struct {
	Endpoint      string `yaml:"endpoint,omitempty"`
	AccessKey     string `yaml:"access_key,omitempty"`
	SecretKey     string `yaml:"secret_key,omitempty"`
	Bucket        string `yaml:"bucket,omitempty"`
	UseSSL        bool   `yaml:"use_ssl,omitempty"`
	Region        string `yaml:"region,omitempty"`
	PresignExpiry string `yaml:"presign_expiry,omitempty"`
}

type TracingConfig struct {
	Enabled    bool    `yaml:"enabled,omitempty"`
	Endpoint   string  `yaml:"endpoint,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty"`
}

// TimeoutConfig holds durations parseable by time.ParseDuration (e.g. "5m", "30s").
type TimeoutConfig struct {
	HTTP    string `yaml:"http,omitempty"`    // backend HTTP client timeout (default: 5m)
	Chat    string `yaml:"chat,omitempty"`    // single assistant turn (default: 2m)
	Refresh string `yaml:"refresh,omitempty"` // full analytics fan-out (default: 10m)
}

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultLocale         = "ru"
	DefaultCurrencySymbol = "₸"
	DefaultLogLevel       = "warn"
	DefaultForecastDays   = 30
	DefaultServeAddr      = "127.0.0.1:8090"
	DefaultBucket         = "tally-reports"

	EnvAPIURL       = "TALLY_API_URL"
	EnvRedisURL     = "TALLY_REDIS_URL"
	EnvLogLevel     = "TALLY_LOG_LEVEL"
	EnvOTLPEndpoint = "TALLY_OTLP_ENDPOINT"
	EnvStorage      = "TALLY_STORAGE_ENDPOINT"

	DefaultHTTPTimeout    = 5 * time.Minute
	DefaultChatTimeout    = 2 * time.Minute
	DefaultRefreshTimeout = 10 * time.Minute
	DefaultChatTTL        = 24 * time.Hour
	DefaultPresignExpiry  = 7 * 24 * time.Hour
)

// EnvFile is read from the working directory before the config file.
const EnvFile = ".env"

// LoadEnvFile exports the variables in path without overriding ones already
// set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tally"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaults() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		Locale:         DefaultLocale,
		CurrencySymbol: DefaultCurrencySymbol,
		LogLevel:       DefaultLogLevel,
		ForecastDays:   DefaultForecastDays,
		ServeAddr:      DefaultServeAddr,
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path, err := Path()
	if err != nil {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.fillDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := defaults()
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = d.CurrencySymbol
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ForecastDays <= 0 {
		c.ForecastDays = d.ForecastDays
	}
	if c.ServeAddr == "" {
		c.ServeAddr = d.ServeAddr
	}
}

// Environment variables take precedence over the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Chat.RedisURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvOTLPEndpoint); v != "" {
		c.Tracing.Enabled = true
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Endpoint = v
	}
}

func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetDataset remembers the last uploaded dataset so later commands can omit --dataset.
func (c *Config) SetDataset(id string) error {
	c.DatasetID = id
	return c.Save()
}

func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

func (c *Config) BucketName() string {
	if c.Storage.Bucket == "" {
		return DefaultBucket
	}
	return c.Storage.Bucket
}

func (c *Config) ChatTTL() time.Duration {
	return parseDuration(c.Chat.TTL, DefaultChatTTL)
}

func (c *Config) PresignExpiry() time.Duration {
	return parseDuration(c.Storage.PresignExpiry, DefaultPresignExpiry)
}

// GetTimeout returns the configured timeout for the given operation, or the default if not set.
// Valid names: "http", "chat", "refresh"
func (c *Config) GetTimeout(name string) time.Duration {
	switch name {
	case "http":
		return parseDuration(c.Timeouts.HTTP, DefaultHTTPTimeout)
	case "chat":
		return parseDuration(c.Timeouts.Chat, DefaultChatTimeout)
	case "refresh":
		return parseDuration(c.Timeouts.Refresh, DefaultRefreshTimeout)
	default:
		return DefaultHTTPTimeout
	}
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Keys lists the settings accepted by Set.
var Keys = []string{
	"api_url", "locale", "currency_symbol", "log_level", "forecast_days",
	"report_dir", "serve_addr", "chat.greeting", "chat.redis_url", "chat.ttl",
	"storage.endpoint", "storage.bucket", "storage.access_key", "storage.secret_key",
	"storage.use_ssl", "tracing.enabled", "tracing.endpoint", "tracing.sample_rate",
	"timeouts.http", "timeouts.chat", "timeouts.refresh",
}

// Set assigns a single dotted key from its string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = strings.TrimSuffix(value, "/")
	case "locale":
		c.Locale = value
	case "currency_symbol":
		c.CurrencySymbol = value
	case "log_level":
		c.LogLevel = value
	case "forecast_days":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 365 {
			return fmt.Errorf("forecast_days must be between 1 and 365")
		}
		c.ForecastDays = n
	case "report_dir":
		c.ReportDir = value
	case "serve_addr":
		c.ServeAddr = value
	case "chat.greeting":
		c.Chat.Greeting = value
	case "chat.redis_url":
		c.Chat.RedisURL = value
	case "chat.ttl", "timeouts.http", "timeouts.chat", "timeouts.refresh":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		switch key {
		case "chat.ttl":
			c.Chat.TTL = value
		case "timeouts.http":
			c.Timeouts.HTTP = value
		case "timeouts.chat":
			c.Timeouts.Chat = value
		default:
			c.Timeouts.Refresh = value
		}
	case "storage.endpoint":
		c.Storage.Endpoint = value
	case "storage.bucket":
		c.Storage.Bucket = value
	case "storage.access_key":
		c.Storage.AccessKey = value
	case "storage.secret_key":
		c.Storage.SecretKey = value
	case "storage.use_ssl":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %s", key, value)
		}
		c.Storage.UseSSL = b
	case "tracing.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %s", key, value)
		}
		c.Tracing.Enabled = b
	case "tracing.endpoint":
		c.Tracing.Endpoint = value
	case "tracing.sample_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
		}
		c.Tracing.SampleRate = f
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

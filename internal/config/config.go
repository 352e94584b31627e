package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Disabled turns off an optional list or path setting such as
// RELAY_ENDPOINTS or OUTPUT_PATH.
const Disabled = "none"

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Source selection. A CSV URL takes precedence over the Sheets API.
	SheetCSVURL           string
	SheetsSpreadsheetID   string
	SheetsRange           string
	SheetsAPIKey          string
	SheetsCredentialsFile string

	// Relays holds the relay URL templates. Nil means the built-in relays;
	// an empty slice means the direct request only.
	Relays          []string
	FetchTimeout    time.Duration
	FallbackToDemo  bool
	RefreshInterval time.Duration

	// Sinks. An empty OutputPath or KafkaBrokers disables that sink.
	OutputPath         string
	KafkaBrokers       []string
	KafkaTopic         string
	BatchSize          int
	BatchFlushInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRateLimit float64 // requests per second; 0 disables throttling
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "0s"))
	if err != nil || refreshInterval < 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL: must be a non-negative duration")
	}

	fallbackToDemo, err := strconv.ParseBool(sharedcfg.EnvOrDefault("FALLBACK_TO_DEMO", "true"))
	if err != nil {
		return nil, errors.New("invalid FALLBACK_TO_DEMO: must be a boolean")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxRateLimit, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAPBOX_RATE_LIMIT", "10"), 64)
	if err != nil || mapboxRateLimit < 0 {
		return nil, errors.New("invalid MAPBOX_RATE_LIMIT: must be a non-negative number")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	outputPath := sharedcfg.EnvOrDefault("OUTPUT_PATH", "data/fishing_locations.geojson")
	if strings.EqualFold(outputPath, Disabled) {
		outputPath = ""
	}

	cfg := &Config{
		SheetCSVURL:           strings.TrimSpace(os.Getenv("SHEET_CSV_URL")),
		SheetsSpreadsheetID:   strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID")),
		SheetsRange:           sharedcfg.EnvOrDefault("SHEETS_RANGE", "Sheet1!A:F"),
		SheetsAPIKey:          os.Getenv("SHEETS_API_KEY"),
		SheetsCredentialsFile: os.Getenv("SHEETS_CREDENTIALS_FILE"),

		Relays:          parseRelays(os.Getenv("RELAY_ENDPOINTS")),
		FetchTimeout:    fetchTimeout,
		FallbackToDemo:  fallbackToDemo,
		RefreshInterval: refreshInterval,

		OutputPath:         outputPath,
		KafkaBrokers:       sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "fishing-locations"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxRateLimit: mapboxRateLimit,
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.SheetsCredentialsFile != "" {
		if _, err := os.Stat(cfg.SheetsCredentialsFile); err != nil {
			return nil, errors.New("SHEETS_CREDENTIALS_FILE is not readable")
		}
	}

	return cfg, nil
}

// SourceConfigured reports whether any remote source is set.
func (c *Config) SourceConfigured() bool {
	return c.SheetCSVURL != "" || c.SheetsSpreadsheetID != ""
}

// KafkaEnabled reports whether the Kafka sink should run.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key + ": must be a positive duration")
	}
	return d, nil
}

func parseRelays(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(value), Disabled) {
		return []string{}
	}
	// Relay templates carry no commas of their own, so the broker list
	// splitter applies.
	return sharedcfg.ParseBrokers(value)
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

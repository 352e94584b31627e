package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCSVURL      = "https://docs.google.com/spreadsheets/d/e/abc/pub?output=csv"
	testMapboxToken = "pk.test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.SheetCSVURL)
	assert.Empty(t, cfg.SheetsSpreadsheetID)
	assert.Equal(t, "Sheet1!A:F", cfg.SheetsRange)
	assert.False(t, cfg.SourceConfigured())
	assert.Nil(t, cfg.Relays)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.FallbackToDemo)
	assert.Zero(t, cfg.RefreshInterval)
	assert.Equal(t, "data/fishing_locations.geojson", cfg.OutputPath)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "fishing-locations", cfg.KafkaTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.InDelta(t, 10, cfg.MapboxRateLimit, 0)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SHEET_CSV_URL", " "+testCSVURL+" ")
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("SHEETS_RANGE", "Spots!A:G")
	t.Setenv("SHEETS_API_KEY", "api-key")
	t.Setenv("RELAY_ENDPOINTS", "https://a.example/?u={url}, https://b.example/{url}")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("FALLBACK_TO_DEMO", "false")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("OUTPUT_PATH", "/tmp/out.geojson")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("MAPBOX_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testCSVURL, cfg.SheetCSVURL)
	assert.Equal(t, "sheet-123", cfg.SheetsSpreadsheetID)
	assert.Equal(t, "Spots!A:G", cfg.SheetsRange)
	assert.Equal(t, "api-key", cfg.SheetsAPIKey)
	assert.True(t, cfg.SourceConfigured())
	assert.Equal(t, []string{"https://a.example/?u={url}", "https://b.example/{url}"}, cfg.Relays)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.FallbackToDemo)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "/tmp/out.geojson", cfg.OutputPath)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.InDelta(t, 2.5, cfg.MapboxRateLimit, 0)
}

func TestLoad_RelaysDisabled(t *testing.T) {
	t.Setenv("RELAY_ENDPOINTS", " NONE ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg.Relays)
	assert.Empty(t, cfg.Relays)
}

func TestLoad_OutputDisabled(t *testing.T) {
	t.Setenv("OUTPUT_PATH", "none")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.OutputPath)
}

func TestLoad_SheetsAPIOnlyIsConfigured(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-123")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.SourceConfigured())
}

func TestLoad_InvalidDurations(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"FETCH_TIMEOUT", "bad"},
		{"FETCH_TIMEOUT", "0s"},
		{"REFRESH_INTERVAL", "soon"},
		{"REFRESH_INTERVAL", "-1m"},
		{"MAPBOX_TIMEOUT", "bad"},
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InvalidFallbackToDemo(t *testing.T) {
	t.Setenv("FALLBACK_TO_DEMO", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FALLBACK_TO_DEMO")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_MissingCredentialsFile(t *testing.T) {
	t.Setenv("SHEETS_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "missing.json"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHEETS_CREDENTIALS_FILE")
}

func TestLoad_CredentialsFilePresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	t.Setenv("SHEETS_CREDENTIALS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.SheetsCredentialsFile)
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidMapboxCacheSizeUsesDefault(t *testing.T) {
	t.Setenv("MAPBOX_CACHE_SIZE", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}

func TestLoad_InvalidMapboxRateLimit(t *testing.T) {
	t.Setenv("MAPBOX_RATE_LIMIT", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_RATE_LIMIT")
}

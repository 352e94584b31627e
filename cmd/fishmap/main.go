package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fishing-map-etl/internal/adapter/geojson"
	"github.com/couchcryptid/fishing-map-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/fishing-map-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fishing-map-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/fishing-map-etl/internal/adapter/sheets"
	"github.com/couchcryptid/fishing-map-etl/internal/config"
	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/fetch"
	"github.com/couchcryptid/fishing-map-etl/internal/observability"
	"github.com/couchcryptid/fishing-map-etl/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, sourceName, err := buildSource(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to configure source", "error", err)
		os.Exit(1)
	}

	// Reverse geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize,
			"timeout", cfg.MapboxTimeout,
			"rate_limit", cfg.MapboxRateLimit,
		)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	publishers, closers := buildPublishers(cfg, logger)

	loader := pipeline.New(pipeline.Options{
		Source:         source,
		SourceName:     sourceName,
		Geocoder:       geocoder,
		Publishers:     publishers,
		FallbackToDemo: cfg.FallbackToDemo,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, loader, logger)

	var g errgroup.Group

	// Start HTTP server.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
			return err
		}
		return nil
	})

	// Start the load loop. A one-shot run keeps serving ops endpoints until
	// a signal arrives.
	g.Go(func() error {
		if err := loader.Run(ctx, cfg.RefreshInterval); err != nil {
			logger.Error("loader error", "error", err)
			return err
		}
		return nil
	})

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildSource picks the row source: the published CSV when SHEET_CSV_URL is
// set, otherwise the Sheets API when a spreadsheet ID is set. A nil source
// makes every cycle show the demo rows.
func buildSource(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (pipeline.RowSource, string, error) {
	if !cfg.SourceConfigured() {
		logger.Warn("no source configured, showing demo data")
		return nil, "", nil
	}

	if cfg.SheetCSVURL != "" {
		relays := cfg.Relays
		if relays == nil {
			relays = fetch.DefaultRelays
		}
		fetcher := fetch.NewFetcher(relays, cfg.FetchTimeout, nil, metrics, logger)
		logger.Info("csv source configured", "strategies", len(fetcher.Strategies()), "timeout", cfg.FetchTimeout)
		return pipeline.NewCSVSource(fetcher, cfg.SheetCSVURL), domain.SourceCSV, nil
	}

	client, err := sheets.NewClient(ctx, sheets.Options{
		SpreadsheetID:   cfg.SheetsSpreadsheetID,
		Range:           cfg.SheetsRange,
		APIKey:          cfg.SheetsAPIKey,
		CredentialsFile: cfg.SheetsCredentialsFile,
		Timeout:         cfg.FetchTimeout,
	}, nil, metrics, logger)
	if err != nil {
		return nil, "", fmt.Errorf("sheets client: %w", err)
	}
	logger.Info("sheets api source configured", "range", cfg.SheetsRange)
	return client, domain.SourceSheets, nil
}

type closer interface {
	Close() error
}

// buildPublishers returns the enabled sinks and those that need closing.
func buildPublishers(cfg *config.Config, logger *slog.Logger) ([]pipeline.Publisher, []closer) {
	var (
		publishers []pipeline.Publisher
		closers    []closer
	)
	if cfg.OutputPath != "" {
		publishers = append(publishers, geojson.NewWriter(cfg.OutputPath, logger))
		logger.Info("geojson sink enabled", "path", cfg.OutputPath)
	}
	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg, logger)
		publishers = append(publishers, w)
		closers = append(closers, w)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	return publishers, closers
}

// Package pipeline runs load cycles: fetch rows from the configured source,
// normalize and enrich them, substitute the demo dataset on failure, and hand
// the result to every sink.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Fallback reasons recorded on the dataset and in fallbacks_total.
const (
	ReasonUnconfigured = "unconfigured"
	ReasonRetrieval    = "retrieval"
	ReasonEmpty        = "empty"
)

// ErrLoadInProgress is returned by Load when another cycle is still running.
var ErrLoadInProgress = errors.New("load cycle already in progress")

// RowSource yields the raw rows for one load cycle.
type RowSource interface {
	FetchRows(ctx context.Context) ([]domain.RawRow, error)
}

// Publisher receives every completed dataset.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, ds domain.Dataset) error
}

// Options wires a Loader.
type Options struct {
	// Source is nil when no remote source is configured.
	Source     RowSource
	SourceName string

	// Geocoder fills PlaceName for unnamed records. Nil disables enrichment.
	Geocoder   domain.Geocoder
	Publishers []Publisher

	// FallbackToDemo substitutes the demo rows after a failed or empty
	// cycle; otherwise the cycle yields an empty dataset.
	FallbackToDemo bool

	Clock clockwork.Clock
}

// Loader owns the current dataset and replaces it once per load cycle.
type Loader struct {
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	cycle   sync.Mutex
	current atomic.Pointer[domain.Dataset]
}

// New creates a Loader with the given source, sinks and observability.
func New(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Source != nil && opts.SourceName == "" {
		opts.SourceName = domain.SourceCSV
	}
	return &Loader{
		opts:    opts,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Current returns the most recent dataset and whether one has been loaded.
func (l *Loader) Current() (domain.Dataset, bool) {
	ds := l.current.Load()
	if ds == nil {
		return domain.Dataset{}, false
	}
	return *ds, true
}

// CheckReadiness returns nil once a dataset has been loaded.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if l.current.Load() == nil {
		return errors.New("no dataset loaded yet")
	}
	return nil
}

// Load runs one cycle and returns the dataset it stored. Source failures are
// absorbed into a fallback dataset and sink failures are only logged, so the
// only errors are ErrLoadInProgress and the context's error when ctx ends
// mid-cycle. In both cases the current dataset is left unchanged.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	if !l.cycle.TryLock() {
		return domain.Dataset{}, ErrLoadInProgress
	}
	defer l.cycle.Unlock()

	start := l.clock.Now()
	ds := l.build(ctx)
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}

	l.current.Store(&ds)

	l.metrics.LoadCycles.WithLabelValues(ds.Source).Inc()
	l.metrics.RecordsLoaded.Set(float64(len(ds.Records)))
	l.metrics.RecordsCaught.Set(float64(ds.Caught))
	l.metrics.LoadDuration.Observe(l.clock.Since(start).Seconds())

	l.logger.Info("dataset loaded",
		"source", ds.Source,
		"fallback", ds.Fallback,
		"records", len(ds.Records),
		"caught", ds.Caught,
		"duration", l.clock.Since(start),
	)

	l.publish(ctx, ds)
	return ds, nil
}

// Run loads immediately, then every interval until ctx is cancelled. A
// non-positive interval loads once and returns.
func (l *Loader) Run(ctx context.Context, interval time.Duration) error {
	l.logger.Info("loader started", "refresh_interval", interval)
	l.metrics.LoaderRunning.Set(1)
	defer l.metrics.LoaderRunning.Set(0)

	l.loadOnce(ctx)
	if interval <= 0 {
		return nil
	}

	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loader stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			l.loadOnce(ctx)
		}
	}
}

func (l *Loader) loadOnce(ctx context.Context) {
	if _, err := l.Load(ctx); err != nil {
		l.logger.Debug("load cycle skipped", "error", err)
	}
}

// build produces the dataset for one cycle, never failing.
func (l *Loader) build(ctx context.Context) domain.Dataset {
	if l.opts.Source == nil {
		return l.fallback(ReasonUnconfigured)
	}

	rows, err := l.opts.Source.FetchRows(ctx)
	if err != nil {
		l.metrics.RetrievalFailures.Inc()
		l.logger.Warn("source retrieval failed", "source", l.opts.SourceName, "error", err)
		return l.fallback(ReasonRetrieval)
	}
	l.metrics.RowsFetched.Add(float64(len(rows)))

	records := domain.Normalize(rows, l.logger)
	if dropped := len(rows) - len(records); dropped > 0 {
		l.metrics.RowsDropped.Add(float64(dropped))
		l.logger.Info("dropped rows with invalid coordinates", "dropped", dropped, "rows", len(rows))
	}
	if len(records) == 0 {
		l.logger.Warn("source yielded no usable rows", "source", l.opts.SourceName, "error", domain.ErrEmptyDataset)
		return l.fallback(ReasonEmpty)
	}

	records = domain.EnrichWithPlaceNames(ctx, records, l.opts.Geocoder, l.logger)
	return domain.NewDataset(records, l.opts.SourceName, "")
}

// fallback returns the demo dataset, or an empty one when demo substitution
// is off. An unconfigured source always shows the demo rows.
func (l *Loader) fallback(reason string) domain.Dataset {
	l.metrics.Fallbacks.WithLabelValues(reason).Inc()

	if reason != ReasonUnconfigured && !l.opts.FallbackToDemo {
		return domain.NewDataset(nil, domain.SourceNone, reason)
	}
	return domain.NewDataset(domain.Normalize(domain.DemoRows(), l.logger), domain.SourceDemo, reason)
}

// publish hands ds to every sink concurrently. Failures are logged and
// counted; they never affect the stored dataset.
func (l *Loader) publish(ctx context.Context, ds domain.Dataset) {
	var g errgroup.Group
	for _, p := range l.opts.Publishers {
		g.Go(func() error {
			if err := p.Publish(ctx, ds); err != nil {
				l.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
				l.logger.Error("publish failed", "sink", p.Name(), "error", err)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()
}

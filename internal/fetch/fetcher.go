package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// errEmptyBody marks a 2xx response without any CSV content.
var errEmptyBody = errors.New("empty response body")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Fetcher retrieves CSV rows by trying each strategy in order until one
// succeeds. It holds no per-call state and is safe for concurrent use.
type Fetcher struct {
	strategies []Strategy
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher that tries relays in order and the direct URL
// last, bounding each attempt by timeout.
func NewFetcher(relays []string, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Fetcher{
		strategies: Strategies(relays, timeout),
		httpClient: &http.Client{},
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Strategies returns the attempt order.
func (f *Fetcher) Strategies() []Strategy {
	out := make([]Strategy, len(f.strategies))
	copy(out, f.strategies)
	return out
}

// FetchRows retrieves and parses the CSV published at sourceURL. It returns a
// *domain.RetrievalError carrying the last failure once every strategy has
// failed. Cancelling ctx stops before the next attempt.
func (f *Fetcher) FetchRows(ctx context.Context, sourceURL string) ([]domain.RawRow, error) {
	var lastErr error
	attempts := 0

	for i, s := range f.strategies {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		attempts++

		f.logger.Debug("fetch attempt",
			"attempt", i+1,
			"of", len(f.strategies),
			"strategy", s.Name,
		)

		rows, err := f.attempt(ctx, s, sourceURL)
		if err == nil {
			f.logger.Info("fetched sheet rows",
				"strategy", s.Name,
				"attempt", i+1,
				"rows", len(rows),
			)
			return rows, nil
		}

		lastErr = err
		f.logger.Warn("fetch attempt failed",
			"attempt", i+1,
			"of", len(f.strategies),
			"strategy", s.Name,
			"error", err,
		)
	}

	return nil, &domain.RetrievalError{Attempts: attempts, Err: lastErr}
}

// attempt performs one strategy with its own timeout. The timeout context is
// released on every return path.
func (f *Fetcher) attempt(ctx context.Context, s Strategy, sourceURL string) (rows []domain.RawRow, err error) {
	start := f.clock.Now()
	attemptCtx, cancel := clockwork.WithTimeout(ctx, f.clock, s.Timeout)
	defer cancel()

	defer func() {
		f.metrics.FetchAttempts.WithLabelValues(s.Name, classify(ctx, attemptCtx, err)).Inc()
		f.metrics.FetchAttemptDuration.WithLabelValues(s.Name).Observe(f.clock.Since(start).Seconds())
	}()

	body, err := f.get(attemptCtx, s.URL(sourceURL))
	if err != nil {
		if timedOut(ctx, attemptCtx) {
			return nil, fmt.Errorf("%s: timed out after %s: %w", s.Name, s.Timeout, err)
		}
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%s: %w", s.Name, errEmptyBody)
	}

	rows, err = ParseRows(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return rows, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// classify maps an attempt error to the fetch_attempts_total outcome label.
func classify(parent, attemptCtx context.Context, err error) string {
	var statusErr *StatusError
	var parseErr *ParseError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.Is(err, errEmptyBody):
		return "empty"
	case errors.As(err, &parseErr):
		return "parse_error"
	case timedOut(parent, attemptCtx):
		return "timeout"
	default:
		return "network_error"
	}
}

// timedOut reports whether the attempt context ended while its parent is still
// live. It never blocks: a fake-clock context's Err waits for Done.
func timedOut(parent, attemptCtx context.Context) bool {
	return isDone(attemptCtx) && !isDone(parent)
}

func isDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Package sheets reads fishing rows through the Google Sheets API v4 as an
// alternative to the published CSV export.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// strategyName labels Sheets API attempts in logs and metrics.
const strategyName = "sheets_api"

const defaultTimeout = 15 * time.Second

// Options selects the spreadsheet range and the credentials used to read it.
type Options struct {
	SpreadsheetID   string
	Range           string
	APIKey          string
	CredentialsFile string
	Timeout         time.Duration
}

// Client reads a single value range. FetchRows makes one attempt per call.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	timeout       time.Duration
	clock         clockwork.Clock
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewClient creates a Sheets API client. Extra client options are appended
// after the credential options.
func NewClient(ctx context.Context, opts Options, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger, extra ...option.ClientOption) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet ID is required")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	clientOpts = append(clientOpts, extra...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: opts.SpreadsheetID,
		readRange:     opts.Range,
		timeout:       opts.Timeout,
		clock:         clock,
		metrics:       metrics,
		logger:        logger,
	}, nil
}

// FetchRows reads the configured range. The first value row is the header
// row. Any failure is returned as a *domain.RetrievalError with one attempt.
func (c *Client) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	start := c.clock.Now()
	attemptCtx, cancel := clockwork.WithTimeout(ctx, c.clock, c.timeout)
	defer cancel()

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).Context(attemptCtx).Do()

	c.metrics.FetchAttempts.WithLabelValues(strategyName, outcome(err)).Inc()
	c.metrics.FetchAttemptDuration.WithLabelValues(strategyName).Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("sheets api read failed",
			"spreadsheet_id", c.spreadsheetID,
			"range", c.readRange,
			"error", err,
		)
		return nil, &domain.RetrievalError{Attempts: 1, Err: fmt.Errorf("read sheet: %w", err)}
	}

	rows := ValuesToRows(resp.Values)
	c.logger.Info("fetched sheet rows",
		"strategy", strategyName,
		"range", resp.Range,
		"rows", len(rows),
	)
	return rows, nil
}

// ValuesToRows converts a value range into raw rows. Headers are trimmed,
// missing cells become "", and rows with only blank cells are skipped.
func ValuesToRows(values [][]interface{}) []domain.RawRow {
	if len(values) == 0 {
		return nil
	}

	header := make([]string, len(values[0]))
	for i, cell := range values[0] {
		header[i] = strings.TrimSpace(cellString(cell))
	}

	var rows []domain.RawRow
	for _, cells := range values[1:] {
		row := make(domain.RawRow, len(header))
		blank := true
		for i, h := range header {
			if _, dup := row[h]; dup {
				continue
			}
			var v string
			if i < len(cells) {
				v = cellString(cells[i])
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			row[h] = v
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func outcome(err error) string {
	var apiErr *googleapi.Error
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &apiErr):
		return "http_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "network_error"
	}
}

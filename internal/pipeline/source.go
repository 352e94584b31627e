package pipeline

import (
	"context"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/fetch"
)

// CSVSource binds a fetcher to a published CSV URL.
type CSVSource struct {
	fetcher *fetch.Fetcher
	url     string
}

// NewCSVSource creates a RowSource for the given URL.
func NewCSVSource(fetcher *fetch.Fetcher, url string) *CSVSource {
	return &CSVSource{fetcher: fetcher, url: url}
}

func (s *CSVSource) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	return s.fetcher.FetchRows(ctx, s.url)
}

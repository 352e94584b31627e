package fetch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseError wraps a failure to read delimited text.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse csv: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// ParseRows reads CSV text whose first record is the header row. Headers are
// trimmed, a leading UTF-8 BOM is dropped, and rows whose cells are all blank
// are skipped. Cells beyond the header width are ignored; missing trailing
// cells are absent from the row. When a trimmed header repeats, the first
// column wins.
func ParseRows(r io.Reader) ([]domain.RawRow, error) {
	_, rows, err := ParseTable(r)
	return rows, err
}

// ParseTable is ParseRows that also returns the trimmed header row, which
// lists every column even when the data rows are ragged. Empty input yields
// no header and no rows.
func ParseTable(r io.Reader) ([]string, []domain.RawRow, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &ParseError{Err: fmt.Errorf("read header: %w", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &ParseError{Err: fmt.Errorf("read row: %w", err)}
		}
		if blankRecord(record) {
			continue
		}

		row := make(domain.RawRow, len(header))
		for i, h := range header {
			if i >= len(record) {
				break
			}
			if _, dup := row[h]; dup {
				continue
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Command genmock generates fixtures from the demo rows (or from an exported
// CSV) using the actual domain and sink packages, so the files match what a
// load cycle produces.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-out data/mock/demo_locations.csv \
//	  -geojson-out data/mock/demo_locations.geojson \
//	  -json-out data/mock/demo_dataset.json
//
// Pass -csv-in to build the GeoJSON and JSON fixtures from an exported sheet
// instead of the demo rows.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/adapter/geojson"
	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/fetch"
	"github.com/jonboulle/clockwork"
)

// fixtureTime stamps LoadedAt so regenerated fixtures are byte-stable.
var fixtureTime = time.Date(2024, time.May, 18, 6, 0, 0, 0, time.UTC)

// csvFields is the column order of generated CSV files.
var csvFields = []domain.Field{
	domain.FieldName,
	domain.FieldLatitude,
	domain.FieldLongitude,
	domain.FieldOutcome,
	domain.FieldMethod,
	domain.FieldNotes,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvIn := flag.String("csv-in", "", "optional exported CSV to use instead of the demo rows")
	csvOut := flag.String("csv-out", "", "output path for the CSV fixture")
	geojsonOut := flag.String("geojson-out", "", "output path for the GeoJSON fixture")
	jsonOut := flag.String("json-out", "", "output path for the dataset JSON fixture")
	flag.Parse()

	if *csvOut == "" && *geojsonOut == "" && *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("at least one of -csv-out, -geojson-out, -json-out is required")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
	defer domain.SetClock(nil)

	ds, rows, err := buildDataset(*csvIn)
	if err != nil {
		return err
	}
	log.Printf("%s: %d rows, %d records, %d caught", ds.Source, len(rows), len(ds.Records), ds.Caught)

	if *csvOut != "" {
		if err := writeCSV(*csvOut, ds.Records); err != nil {
			return fmt.Errorf("writing CSV fixture: %w", err)
		}
		log.Printf("wrote CSV fixture: %s", *csvOut)
	}
	if *geojsonOut != "" {
		fc, err := geojson.FeatureCollection(ds)
		if err != nil {
			return fmt.Errorf("encoding GeoJSON fixture: %w", err)
		}
		if err := writeJSON(*geojsonOut, fc); err != nil {
			return fmt.Errorf("writing GeoJSON fixture: %w", err)
		}
		log.Printf("wrote GeoJSON fixture: %s", *geojsonOut)
	}
	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, ds); err != nil {
			return fmt.Errorf("writing dataset fixture: %w", err)
		}
		log.Printf("wrote dataset fixture: %s", *jsonOut)
	}
	return nil
}

// buildDataset normalizes the demo rows, or the rows of csvIn when set.
func buildDataset(csvIn string) (domain.Dataset, []domain.RawRow, error) {
	if csvIn == "" {
		rows := domain.DemoRows()
		records := make([]domain.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := domain.NormalizeRow(row)
			if err != nil {
				return domain.Dataset{}, nil, fmt.Errorf("demo row: %w", err)
			}
			records = append(records, rec)
		}
		return domain.NewDataset(records, domain.SourceDemo, ""), rows, nil
	}

	f, err := os.Open(csvIn)
	if err != nil {
		return domain.Dataset{}, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := fetch.ParseRows(f)
	if err != nil {
		return domain.Dataset{}, nil, err
	}

	var records []domain.Record //nolint:prealloc // invalid rows are skipped
	for i, row := range rows {
		rec, err := domain.NormalizeRow(row)
		if err != nil {
			log.Printf("skipping row %d: %v", i+1, err)
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return domain.Dataset{}, nil, domain.ErrEmptyDataset
	}
	return domain.NewDataset(records, domain.SourceCSV, ""), rows, nil
}

// writeCSV writes records under their canonical headers.
func writeCSV(path string, records []domain.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]string, len(csvFields))
	for i, fld := range csvFields {
		header[i] = domain.Aliases[fld][0]
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		row := rec.Row()
		line := make([]string, len(header))
		for i, h := range header {
			line[i] = row[h]
		}
		if err := w.Write(line); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Command validate checks a fishing-location CSV export offline, the way a
// load cycle would read it: header resolution, coordinate coercion and the
// rows a cycle would drop. With -geojson it also checks that a GeoJSON sink
// file matches the records the CSV produces.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv internal/pipeline/testdata/fishing_locations.csv \
//	  -geojson data/fishing_locations.geojson \
//	  -strict
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/fetch"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// coordTolerance absorbs float formatting differences between CSV and JSON.
const coordTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the exported CSV")
	geojsonPath := flag.String("geojson", "", "optional GeoJSON sink file to compare against")
	strict := flag.Bool("strict", false, "fail when any row would be dropped")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *csvPath, *geojsonPath, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, csvPath, geojsonPath string, strict bool) int {
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}
	defer f.Close()

	columns, rows, err := fetch.ParseTable(f)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	headers := &phase{name: "Header resolution"}
	checkHeaders(headers, columns, rows)

	coords := &phase{name: "Coordinate validation"}
	records := checkRows(coords, rows, strict)

	phases := []*phase{headers, coords}
	if geojsonPath != "" {
		sink := &phase{name: "GeoJSON consistency"}
		checkGeoJSON(sink, geojsonPath, records)
		phases = append(phases, sink)
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	caught := domain.NewDataset(records, domain.SourceCSV, "").Caught
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d parsed, %d valid, %d dropped, %d caught\n",
		len(rows), len(records), len(rows)-len(records), caught)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

// checkHeaders resolves every field against the header row. Latitude and
// longitude are required; the other fields only fall back to placeholders.
func checkHeaders(p *phase, columns []string, rows []domain.RawRow) {
	if len(rows) == 0 {
		p.errorf("no data rows")
		return
	}
	header := make(domain.RawRow, len(columns))
	for _, c := range columns {
		header[c] = c
	}
	for _, f := range []domain.Field{domain.FieldLatitude, domain.FieldLongitude} {
		if _, ok := domain.Resolve(header, domain.Aliases[f]); !ok {
			p.errorf("no %s column (accepted: %q)", f, domain.Aliases[f])
		}
	}
}

// checkRows normalizes each row and reports the ones a load cycle would drop.
// Dropped rows are only errors in strict mode.
func checkRows(p *phase, rows []domain.RawRow, strict bool) []domain.Record {
	records := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := domain.NormalizeRow(row)
		if err != nil {
			if strict {
				p.errorf("row %d (%q): %v", i+1, domain.Lookup(row, domain.FieldName), err)
			}
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 && len(rows) > 0 {
		p.errorf("no valid rows: a load cycle would fall back")
	}
	return records
}

// checkGeoJSON compares the sink file with the records in order. A feature's
// place_name is taken as the geocoded name of its record, since the sheet
// alone cannot reproduce it.
func checkGeoJSON(p *phase, path string, records []domain.Record) {
	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read: %v", err)
		return
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		p.errorf("decode: %v", err)
		return
	}
	if len(fc.Features) != len(records) {
		p.errorf("feature count %d, want %d", len(fc.Features), len(records))
		return
	}

	for i, feat := range fc.Features {
		rec := records[i]
		if place, _ := feat.Properties["place_name"].(string); place != "" {
			rec.PlaceName = place
		}
		pt, ok := feat.Geometry.(*geom.Point)
		if !ok {
			p.errorf("feature %d: geometry %T, want Point", i, feat.Geometry)
			continue
		}
		if math.Abs(pt.X()-rec.Lon) > coordTolerance || math.Abs(pt.Y()-rec.Lat) > coordTolerance {
			p.errorf("feature %d (%s): point %v, want [%v %v]", i, rec.DisplayName(), pt.Coords(), rec.Lon, rec.Lat)
		}
		if got, _ := feat.Properties["caught"].(bool); got != rec.Caught() {
			p.errorf("feature %d (%s): caught %v, want %v", i, rec.DisplayName(), got, rec.Caught())
		}
		if got, _ := feat.Properties["display_name"].(string); got != rec.DisplayName() {
			p.errorf("feature %d: display_name %q, want %q", i, got, rec.DisplayName())
		}
	}
}

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	geojsonsink "github.com/couchcryptid/fishing-map-etl/internal/adapter/geojson"
	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../internal/pipeline/testdata/fishing_locations.csv"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_FixturePasses(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, fixture, "", false)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Rows: 6 parsed, 4 valid, 2 dropped, 2 caught")
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_StrictReportsDroppedRows(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, fixture, "", true)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `row 4 ("Broken Coordinates")`)
	assert.Contains(t, out.String(), `row 5 ("Missing Longitude")`)
}

func TestRun_MissingCoordinateColumns(t *testing.T) {
	path := writeFile(t, "no-coords.csv", "Location Name,Notes\nA,b\n")

	var out bytes.Buffer
	code := run(&out, path, "", false)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "no latitude column")
	assert.Contains(t, out.String(), "no longitude column")
	assert.Contains(t, out.String(), "a load cycle would fall back")
}

func TestRun_RaggedFirstRowKeepsHeaders(t *testing.T) {
	path := writeFile(t, "ragged.csv", "Location Name,LAT,LON,Fish Caught?\nA,40.1\nB,41,-74,Yes\n")

	var out bytes.Buffer
	code := run(&out, path, "", false)

	assert.Equal(t, 0, code, out.String())
	assert.NotContains(t, out.String(), "no longitude column")
	assert.Contains(t, out.String(), "Rows: 2 parsed, 1 valid, 1 dropped, 1 caught")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, filepath.Join(t.TempDir(), "absent.csv"), "", false))
	assert.Contains(t, out.String(), "FATAL")
}

func TestRun_GeoJSONMatches(t *testing.T) {
	// Produce the sink file from the same records a load cycle would build.
	records := loadFixtureRecords(t)
	out := filepath.Join(t.TempDir(), "fishing.geojson")
	w := geojsonsink.NewWriter(out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, w.Publish(context.Background(), domain.NewDataset(records, domain.SourceCSV, "")))

	var buf bytes.Buffer
	code := run(&buf, fixture, out, false)
	assert.Equal(t, 0, code, buf.String())
	assert.Contains(t, buf.String(), "GeoJSON consistency")
}

func TestRun_GeoJSONGeocodedNameMatches(t *testing.T) {
	records := loadFixtureRecords(t)
	require.Empty(t, records[2].Name)
	records[2].PlaceName = "Maupin"

	out := filepath.Join(t.TempDir(), "fishing.geojson")
	w := geojsonsink.NewWriter(out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, w.Publish(context.Background(), domain.NewDataset(records, domain.SourceCSV, "")))

	var buf bytes.Buffer
	code := run(&buf, fixture, out, false)
	assert.Equal(t, 0, code, buf.String())
	assert.NotContains(t, buf.String(), "display_name")
}

func TestRun_GeoJSONMismatch(t *testing.T) {
	records := loadFixtureRecords(t)
	out := filepath.Join(t.TempDir(), "fishing.geojson")
	w := geojsonsink.NewWriter(out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, w.Publish(context.Background(), domain.NewDataset(records[:3], domain.SourceCSV, "")))

	var buf bytes.Buffer
	code := run(&buf, fixture, out, false)
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "feature count 3, want 4")
}

func loadFixtureRecords(t *testing.T) []domain.Record {
	t.Helper()
	p := &phase{name: "rows"}
	f, err := os.Open(fixture)
	require.NoError(t, err)
	defer f.Close()

	rows, err := fetch.ParseRows(f)
	require.NoError(t, err)
	records := checkRows(p, rows, false)
	require.True(t, p.passed())
	require.Len(t, records, 4)
	return records
}

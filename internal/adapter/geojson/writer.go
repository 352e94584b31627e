// Package geojson exports the current dataset as a GeoJSON FeatureCollection
// file for the map front end.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Writer replaces a GeoJSON file with each published dataset.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a file sink writing to path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "geojson" }

// Publish encodes ds and atomically replaces the output file.
func (w *Writer) Publish(ctx context.Context, ds domain.Dataset) error {
	fc, err := FeatureCollection(ds)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeAtomic(w.path, append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}

	w.logger.Info("geojson written",
		"path", w.path,
		"features", len(fc.Features),
		"source", ds.Source,
	)
	return nil
}

// FeatureCollection converts a dataset into one Point feature per record,
// in record order. The collection bbox covers every point; an empty dataset
// has no bbox.
func FeatureCollection(ds domain.Dataset) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(ds.Records)),
	}
	if len(ds.Records) == 0 {
		return fc, nil
	}

	bounds := geom.NewBounds(geom.XY)
	for _, rec := range ds.Records {
		point, err := geom.NewPoint(geom.XY).SetCoords(geom.Coord{rec.Lon, rec.Lat})
		if err != nil {
			return nil, fmt.Errorf("point for %s: %w", rec.ID, err)
		}
		bounds.Extend(point)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         rec.ID,
			Geometry:   point,
			Properties: properties(rec, ds),
		})
	}
	fc.BBox = bounds
	return fc, nil
}

func properties(rec domain.Record, ds domain.Dataset) map[string]interface{} {
	props := map[string]interface{}{
		"name":         rec.Name,
		"display_name": rec.DisplayName(),
		"outcome":      rec.DisplayOutcome(),
		"method":       rec.DisplayMethod(),
		"notes":        rec.DisplayNotes(),
		"caught":       rec.Caught(),
		"marker_color": rec.MarkerColor(),
		"coordinates":  rec.Coordinates(),
		"source":       ds.Source,
		"fallback":     ds.Fallback,
	}
	if rec.PlaceName != "" {
		props["place_name"] = rec.PlaceName
	}
	if !ds.LoadedAt.IsZero() {
		props["loaded_at"] = ds.LoadedAt.UTC().Format(time.RFC3339)
	}
	return props
}

// writeAtomic writes data to a temp file beside dest and renames it into
// place, so readers never observe a partial file.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fishing-*.geojson.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

package domain

import (
	"context"
	"log/slog"
	"strings"
)

// EnrichWithPlaceNames reverse-geocodes records that have no name and stores
// the result in PlaceName. Name is never changed. A nil geocoder or a failed
// lookup leaves the record as it was.
func EnrichWithPlaceNames(ctx context.Context, records []Record, geocoder Geocoder, logger *slog.Logger) []Record {
	if geocoder == nil {
		return records
	}

	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		if strings.TrimSpace(out[i].Name) != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		result, err := geocoder.ReverseGeocode(ctx, out[i].Lat, out[i].Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"record_id", out[i].ID,
				"lat", out[i].Lat,
				"lon", out[i].Lon,
				"error", err,
			)
			continue
		}
		out[i].PlaceName = result.PlaceName
	}
	return out
}

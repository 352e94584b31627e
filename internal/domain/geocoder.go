package domain

import "context"

// GeocodingResult is the place found for a coordinate pair. An empty
// PlaceName means no place matched.
type GeocodingResult struct {
	PlaceName string
}

// Geocoder looks up place details for a coordinate pair.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

package domain

import (
	"sort"
	"strings"
)

// Field is a semantic column of a fishing-location row.
type Field int

const (
	FieldName Field = iota
	FieldLatitude
	FieldLongitude
	FieldOutcome
	FieldMethod
	FieldNotes
)

var fieldNames = [...]string{"name", "latitude", "longitude", "outcome", "method", "notes"}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// Aliases lists the accepted header spellings per field, most preferred first.
// The first alias of each field is the canonical header used by [Record.Row].
var Aliases = map[Field][]string{
	FieldName:      {"Location Name", "LocationName", "location name", "Location"},
	FieldLatitude:  {"LAT", "Lat", "lat", "Latitude", "latitude"},
	FieldLongitude: {"LON", "Lon", "lon", "Longitude", "longitude", "LONG"},
	FieldOutcome:   {"Fish Caught?", "FishCaught", "Fish Caught", "fish caught?"},
	FieldMethod:    {"Flies used", "FliesUsed", "Flies Used", "flies used"},
	FieldNotes:     {"Location Notes", "LocationNotes", "Notes", "notes"},
}

// Resolve returns the value of the first alias present in row. Exact keys are
// tried first, in alias order; then keys are compared trimmed and
// case-insensitively, still in alias order. Row keys that tie on one alias are
// taken in sorted order. ok is false when nothing matches.
func Resolve(row RawRow, aliases []string) (value string, ok bool) {
	for _, alias := range aliases {
		if v, found := row[alias]; found {
			return v, true
		}
	}

	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, alias := range aliases {
		want := foldHeader(alias)
		for _, k := range keys {
			if foldHeader(k) == want {
				return row[k], true
			}
		}
	}
	return "", false
}

// Lookup resolves a semantic field, returning "" when it is absent.
func Lookup(row RawRow, f Field) string {
	v, _ := Resolve(row, Aliases[f])
	return v
}

func foldHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

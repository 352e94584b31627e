package domain

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

var (
	errNoValue   = errors.New("missing value")
	errNoNumber  = errors.New("no leading number")
	errNotFinite = errors.New("not finite")
)

// Normalize resolves, coerces and filters raw rows into records. Rows whose
// latitude or longitude is missing or not a finite number are dropped and
// logged; input order is preserved for the rest. It performs no I/O.
func Normalize(rows []RawRow, logger *slog.Logger) []Record {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := NormalizeRow(row)
		if err != nil {
			logger.Debug("dropping row with invalid coordinates",
				"row", i+1,
				"name", Lookup(row, FieldName),
				"error", err,
			)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// NormalizeRow converts a single row, failing only on invalid coordinates.
func NormalizeRow(row RawRow) (Record, error) {
	lat, err := parseCoord(row, FieldLatitude)
	if err != nil {
		return Record{}, err
	}
	lon, err := parseCoord(row, FieldLongitude)
	if err != nil {
		return Record{}, err
	}

	name := Lookup(row, FieldName)
	return Record{
		ID:      generateID(name, lat, lon),
		Name:    name,
		Lat:     lat,
		Lon:     lon,
		Outcome: Lookup(row, FieldOutcome),
		Method:  Lookup(row, FieldMethod),
		Notes:   Lookup(row, FieldNotes),
	}, nil
}

// parseCoord reads the leading decimal number of a coordinate cell and
// ignores whatever follows it, so "45.5231°" and "40.7128 N" keep their
// value and "40,7" reads as 40.
func parseCoord(row RawRow, f Field) (float64, error) {
	raw, ok := Resolve(row, Aliases[f])
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, &CoordinateError{Field: f, Value: raw, Err: errNoValue}
	}
	num := leadingNumber(strings.TrimSpace(raw))
	if num == "" {
		return 0, &CoordinateError{Field: f, Value: raw, Err: errNoNumber}
	}
	v, err := strconv.ParseFloat(num, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &CoordinateError{Field: f, Value: raw, Err: errNotFinite}
	}
	if err != nil {
		return 0, &CoordinateError{Field: f, Value: raw, Err: err}
	}
	return v, nil
}

// leadingNumber returns the longest prefix of s matching
// [+-]digits[.digits][(e|E)[+-]digits], where either the integer or the
// fraction digits may be empty but not both. It returns "" when s does not
// start with a number.
func leadingNumber(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intEnd := scanDigits(s, i)
	digits := intEnd - i
	i = intEnd
	if i < len(s) && s[i] == '.' {
		fracEnd := scanDigits(s, i+1)
		if digits+fracEnd-(i+1) > 0 {
			digits += fracEnd - (i + 1)
			i = fracEnd
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if expEnd := scanDigits(s, j); expEnd > j {
			i = expEnd
		}
	}
	return s[:i]
}

func scanDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

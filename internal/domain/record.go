package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Marker colours shared with the map legend.
const (
	ColorCaught    = "#2ecc71"
	ColorNotCaught = "#95a5a6"
)

// Placeholders shown in the detail panel when a field is empty.
const (
	PlaceholderName    = "Unnamed Location"
	PlaceholderMissing = "Not specified"
	PlaceholderNotes   = "No notes"
)

// Dataset sources.
const (
	SourceCSV    = "csv"
	SourceSheets = "sheets"
	SourceDemo   = "demo"
	SourceNone   = "none"
)

// RawRow is one spreadsheet row keyed by its (trimmed) header cells.
type RawRow map[string]string

// Record is a validated fishing location. Lat and Lon are always finite.
type Record struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Outcome string  `json:"outcome"`
	Method  string  `json:"method"`
	Notes   string  `json:"notes"`

	// PlaceName is filled by reverse geocoding for records without a name.
	PlaceName string `json:"place_name,omitempty"`
}

// Caught reports whether the outcome text counts as a catch. Empty text and
// a case-insensitive "no" do not.
func (r Record) Caught() bool {
	v := strings.TrimSpace(r.Outcome)
	return v != "" && !strings.EqualFold(v, "no")
}

// MarkerColor returns the legend colour for the record.
func (r Record) MarkerColor() string {
	if r.Caught() {
		return ColorCaught
	}
	return ColorNotCaught
}

// Coordinates formats the position exactly as it is used for placement.
func (r Record) Coordinates() string {
	return formatCoord(r.Lat) + ", " + formatCoord(r.Lon)
}

// DisplayName returns the sheet name, else the geocoded place name, else the
// "Unnamed Location" placeholder.
func (r Record) DisplayName() string {
	switch {
	case strings.TrimSpace(r.Name) != "":
		return r.Name
	case r.PlaceName != "":
		return r.PlaceName
	default:
		return PlaceholderName
	}
}

// DisplayOutcome returns the outcome text, or "Not specified" when empty.
func (r Record) DisplayOutcome() string { return orPlaceholder(r.Outcome, PlaceholderMissing) }

// DisplayMethod returns the flies used, or "Not specified" when empty.
func (r Record) DisplayMethod() string { return orPlaceholder(r.Method, PlaceholderMissing) }

// DisplayNotes returns the notes, or "No notes" when empty.
func (r Record) DisplayNotes() string { return orPlaceholder(r.Notes, PlaceholderNotes) }

// Row renders the record back into a RawRow with canonical headers.
func (r Record) Row() RawRow {
	return RawRow{
		Aliases[FieldName][0]:      r.Name,
		Aliases[FieldLatitude][0]:  formatCoord(r.Lat),
		Aliases[FieldLongitude][0]: formatCoord(r.Lon),
		Aliases[FieldOutcome][0]:   r.Outcome,
		Aliases[FieldMethod][0]:    r.Method,
		Aliases[FieldNotes][0]:     r.Notes,
	}
}

// Dataset is the current display set produced by one load cycle.
type Dataset struct {
	Records  []Record  `json:"records"`
	Source   string    `json:"source"`
	Fallback string    `json:"fallback,omitempty"` // "unconfigured", "retrieval", "empty"
	Caught   int       `json:"caught"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewDataset tallies caught records and stamps the load time.
func NewDataset(records []Record, source, fallback string) Dataset {
	caught := 0
	for _, r := range records {
		if r.Caught() {
			caught++
		}
	}
	return Dataset{
		Records:  records,
		Source:   source,
		Fallback: fallback,
		Caught:   caught,
		LoadedAt: clock.Now().UTC(),
	}
}

func orPlaceholder(v, placeholder string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}

// formatCoord uses the shortest representation that parses back to v.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// generateID produces a deterministic ID from the record's identifying fields.
func generateID(name string, lat, lon float64) string {
	input := fmt.Sprintf("%s|%s|%s", strings.TrimSpace(name), formatCoord(lat), formatCoord(lon))
	hash := sha256.Sum256([]byte(input))
	return "loc-" + hex.EncodeToString(hash[:8])
}

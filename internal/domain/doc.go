// Package domain models fishing-location records sourced from a published
// spreadsheet.
//
// # Data Source
//
// Anglers log each spot as one spreadsheet row. The sheet is published to the
// web as CSV (or read through the Google Sheets API) and fetched by the
// fetch package, which turns the text into [RawRow] values keyed by the
// trimmed header cells.
//
// # Header Conventions
//
// Headers are typed by hand and drift between sheets. Each semantic field has
// an ordered alias list in [Aliases]:
//
//	name:      "Location Name", "LocationName", "location name", "Location"
//	latitude:  "LAT", "Lat", "lat", "Latitude", "latitude"
//	longitude: "LON", "Lon", "lon", "Longitude", "longitude", "LONG"
//	outcome:   "Fish Caught?", "FishCaught", "Fish Caught", "fish caught?"
//	method:    "Flies used", "FliesUsed", "Flies Used", "flies used"
//	notes:     "Location Notes", "LocationNotes", "Notes", "notes"
//
// [Resolve] tries exact keys first, then a trimmed, case-insensitive match.
//
// # Coordinates
//
// Latitude and longitude are decimal degrees with a "." separator. Only the
// leading number of a cell is read, so "45.5231°" is 45.5231 and "40,7" is 40.
// A row whose latitude or longitude has no leading number, or whose number is
// not finite, is dropped by [Normalize]; nothing downstream ever sees a
// non-finite coordinate.
//
// # Outcome
//
// The "Fish Caught?" cell is free text. It is stored verbatim; the marker
// colour and the caught tally use [Record.Caught], which is false for an empty
// cell or a case-insensitive "no".
//
// # ID Generation
//
// Record IDs are short SHA-256 hashes of name|lat|lon, so republishing the same
// sheet produces the same message keys downstream. See [generateID].
package domain

package domain

// DemoRows returns the fixed example rows used when no source is configured
// or a load cycle fails. Each call returns fresh maps.
func DemoRows() []RawRow {
	return []RawRow{
		{
			"Location Name":  "Demo Location 1",
			"LAT":            "40.7128",
			"LON":            "-74.0060",
			"Fish Caught?":   "Yes",
			"Flies used":     "Dry Fly, Nymph",
			"Location Notes": "Great spot for trout",
		},
		{
			"Location Name":  "Demo Location 2",
			"LAT":            "34.0522",
			"LON":            "-118.2437",
			"Fish Caught?":   "No",
			"Flies used":     "",
			"Location Notes": "Need to try again",
		},
		{
			"Location Name":  "Demo Location 3",
			"LAT":            "47.6062",
			"LON":            "-122.3321",
			"Fish Caught?":   "Yes",
			"Flies used":     "Streamer, Woolly Bugger",
			"Location Notes": "Excellent salmon fishing",
		},
	}
}

// Package model defines the NerdsCourt record types: personas, trials and lore entries.
package model

import "time"

// TimeLayout is the ISO-8601 UTC layout used for every generated timestamp.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp formats t in UTC with a trailing Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTimestamp parses a timestamp written by Timestamp. RFC 3339 values are accepted too.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

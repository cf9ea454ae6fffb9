// Package timecodec converts iMessage archive timestamps to wall-clock time.
//
// The archive counts time from 2001-01-01 00:00:00 UTC. Databases written
// since macOS High Sierra store nanoseconds; older ones store seconds.
package timecodec

import "time"

// AppleEpoch is 2001-01-01T00:00:00Z expressed as a Unix timestamp.
const AppleEpoch int64 = 978307200

// Layout is the transcript timestamp layout: date plus 12-hour clock.
const Layout = "2006-01-02 3:04 PM"

// Unknown is rendered for zero, negative or out-of-range timestamps.
const Unknown = "Unknown date"

// nanosecondThreshold separates second-resolution values from nanosecond ones.
const nanosecondThreshold = 1_000_000_000_000

// Decode converts a raw archive value to a time. ok is false when the value
// carries no usable date.
func Decode(raw int64) (t time.Time, ok bool) {
	if raw <= 0 {
		return time.Time{}, false
	}
	if raw > nanosecondThreshold {
		t = time.Unix(AppleEpoch+raw/1e9, raw%1e9)
	} else {
		t = time.Unix(AppleEpoch+raw, 0)
	}
	if y := t.UTC().Year(); y < 1 || y > 9999 {
		return time.Time{}, false
	}
	return t, true
}

// Format renders raw in loc using Layout. A nil loc means time.Local.
func Format(raw int64, loc *time.Location) string {
	t, ok := Decode(raw)
	if !ok {
		return Unknown
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(Layout)
}

// Encode converts t to the archive's nanosecond representation.
func Encode(t time.Time) int64 {
	return (t.Unix()-AppleEpoch)*1e9 + int64(t.Nanosecond())
}

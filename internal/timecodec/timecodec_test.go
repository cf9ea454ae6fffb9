package timecodec

import (
	"testing"
	"time"
)

func TestFormatNanoseconds(t *testing.T) {
	want := time.Date(2025, 1, 15, 15, 43, 0, 0, time.UTC)
	raw := Encode(want)
	if got := Format(raw, time.UTC); got != "2025-01-15 3:43 PM" {
		t.Fatalf("Format(%d) = %q, want %q", raw, got, "2025-01-15 3:43 PM")
	}
}

func TestFormatSeconds(t *testing.T) {
	// 2017-01-01 00:00:00 UTC stored by a pre-High Sierra database.
	raw := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC).Unix() - AppleEpoch
	if got := Format(raw, time.UTC); got != "2017-01-01 12:00 AM" {
		t.Fatalf("Format(%d) = %q", raw, got)
	}
}

func TestRoundTripMinutePrecision(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	cases := []time.Time{
		time.Date(2001, 1, 2, 0, 1, 0, 0, time.UTC),
		time.Date(2019, 7, 4, 9, 5, 30, 123456789, loc),
		time.Date(2025, 12, 31, 23, 59, 59, 0, loc),
	}
	for _, want := range cases {
		got := Format(Encode(want), loc)
		if exp := want.In(loc).Format(Layout); got != exp {
			t.Errorf("round trip of %v = %q, want %q", want, got, exp)
		}
	}
}

func TestUnknownPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		raw  int64
	}{
		{"zero", 0},
		{"negative", -5},
		{"seconds beyond year 9999", 999_999_999_999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.raw, time.UTC); got != Unknown {
				t.Fatalf("Format(%d) = %q, want %q", tt.raw, got, Unknown)
			}
			if _, ok := Decode(tt.raw); ok {
				t.Fatalf("Decode(%d) reported ok", tt.raw)
			}
		})
	}
}

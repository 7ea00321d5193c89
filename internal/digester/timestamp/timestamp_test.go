package timestamp

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"epoch seconds", "1700000000", "2023-11-14T22:13:20.000Z"},
		{"epoch millis", "1700000000000", "2023-11-14T22:13:20.000Z"},
		{"fractional seconds", "1700000000.25", "2023-11-14T22:13:20.250Z"},
		{"millis keep precision", "1700000000123", "2023-11-14T22:13:20.123Z"},
		{"iso passthrough", "2024-01-15T10:30:45+01:00", "2024-01-15T10:30:45+01:00"},
		{"iso without zone", "2024-01-15T10:30", "2024-01-15T10:30"},
		{"not a number", "not-a-number", "not-a-number"},
		{"too small", "999999999", "999999999"},
		{"between ranges", "100000000000", "100000000000"},
		{"too large", "100000000000000", "100000000000000"},
		{"date only", "2024-01-15", "2024-01-15"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSecondsAndMillisAgree(t *testing.T) {
	if Normalize("1700000000") != Normalize("1700000000000") {
		t.Error("seconds and milliseconds for the same instant should normalize identically")
	}
}

func TestIsColumn(t *testing.T) {
	for _, name := range []string{"timestamp", "Time", "DATE", "@timestamp", "dateTime", "created_at", "createdAt", "updated_at", "UpdatedAt"} {
		if !IsColumn(name) {
			t.Errorf("IsColumn(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"ts", "message", "timestamp_ms", ""} {
		if IsColumn(name) {
			t.Errorf("IsColumn(%q) = true, want false", name)
		}
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 1, 15, 11, 30, 45, 123456789, time.FixedZone("CET", 3600))
	if got, want := Format(ts), "2024-01-15T10:30:45.123Z"; got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

package cli

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45210, "-45,210"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
		{time.Hour + 2*time.Minute + 5*time.Second, "1h 2m"},
		{-90 * time.Second, "-1m 30s"},
		{400 * time.Millisecond, "0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	got := FormatDate(time.Date(2019, 1, 2, 3, 0, 0, 0, loc))
	if got != "2019-01-01" {
		t.Errorf("FormatDate = %q, want UTC date 2019-01-01", got)
	}
	if FormatDate(time.Time{}) != "-" {
		t.Error("zero time should render as -")
	}
}

func TestFormatPercentAndMinutes(t *testing.T) {
	if got := FormatPercent(12.345); got != "12.3%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatMinutes(22.5); got != "22.5 min" {
		t.Errorf("FormatMinutes = %q", got)
	}
	if got := FormatFloat(1.5); got != "1.50" {
		t.Errorf("FormatFloat = %q", got)
	}
}

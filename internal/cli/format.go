// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDuration formats a duration for display.
// e.g., 1h2m5s -> "1h 2m", 2m5s -> "2m 5s", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	secs := int64(d.Round(time.Second) / time.Second)
	if secs == 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60
	rem := secs % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 && rem > 0 {
		return fmt.Sprintf("%dm %ds", mins, rem)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatMinutes formats fractional minutes with one decimal.
func FormatMinutes(m float64) string {
	return fmt.Sprintf("%.1f min", m)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatFloat formats a ratio with two decimals.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatDate formats a day bucket as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

// FormatTime formats an instant as YYYY-MM-DD HH:MM UTC.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/tutstat/internal/model"
)

// Layouts accepted for range bounds. The first entry is date-only and is
// treated specially by ParseBound.
var boundLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// SelectRange returns sessions whose end time falls within [start, end],
// both bounds inclusive. When start is after end the result is empty.
// The input slice is never modified.
func SelectRange(sessions []model.Session, start, end time.Time) []model.Session {
	result := make([]model.Session, 0)
	if start.After(end) {
		return result
	}
	for _, s := range sessions {
		if s.EndAt.Before(start) || s.EndAt.After(end) {
			continue
		}
		result = append(result, s)
	}
	return result
}

// SelectByCalendar returns sessions whose UTC end time matches the
// calendar parts of c. An invalid calendar selects nothing.
func SelectByCalendar(sessions []model.Session, c model.Calendar) []model.Session {
	if !c.Valid() {
		return make([]model.Session, 0)
	}
	start, end := c.Bounds()
	return SelectRange(sessions, start, end)
}

// ParseBound parses a range bound. A date-only value is midnight UTC for a
// start bound and the last nanosecond of that day for an end bound.
func ParseBound(s string, isEnd bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for i, layout := range boundLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		if i == 0 && isEnd {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)", s)
}

package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/tutstat/internal/model"
)

func TestSelectRange(t *testing.T) {
	sessions := scenarioDataset().Sessions()
	original := append([]model.Session(nil), sessions...)

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"whole span", at("2019-01-01T00:00"), at("2019-01-02T23:59"), 3},
		{"inclusive start", at("2019-01-01T10:00"), at("2019-01-01T10:30"), 1},
		{"inclusive end", at("2019-01-01T10:30"), at("2019-01-01T11:00"), 1},
		{"single instant", at("2019-01-02T09:00"), at("2019-01-02T09:00"), 1},
		{"instant between sessions", at("2019-01-01T10:30"), at("2019-01-01T10:30"), 0},
		{"inverted", at("2019-01-02T00:00"), at("2019-01-01T00:00"), 0},
		{"outside data", at("2020-01-01T00:00"), at("2020-02-01T00:00"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectRange(sessions, tt.start, tt.end)
			require.NotNil(t, got)
			assert.Len(t, got, tt.want)
			for _, s := range got {
				assert.False(t, s.EndAt.Before(tt.start) || s.EndAt.After(tt.end))
			}
		})
	}
	assert.Equal(t, original, sessions, "input is not modified")
}

func TestSelectByCalendar(t *testing.T) {
	sessions := []model.Session{
		sess("A", 1, "2018-12-31T23:00", "2018-12-31T23:59"),
		sess("A", 1, "2019-01-01T09:00", "2019-01-01T10:00"),
		sess("B", 1, "2019-01-31T23:00", "2019-02-01T00:00"),
		sess("C", 1, "2019-02-28T10:00", "2019-02-28T11:00"),
		sess("D", 1, "2020-02-29T10:00", "2020-02-29T11:00"),
	}

	tests := []struct {
		name string
		cal  model.Calendar
		want int
	}{
		{"year", model.Calendar{Year: 2019}, 3},
		{"year ignores day without month", model.Calendar{Year: 2019, Day: 1}, 3},
		{"month", model.Calendar{Year: 2019, Month: time.February}, 2},
		{"day", model.Calendar{Year: 2019, Month: time.January, Day: 1}, 1},
		{"leap day", model.Calendar{Year: 2020, Month: time.February, Day: 29}, 1},
		{"no match", model.Calendar{Year: 2017}, 0},
		{"invalid day", model.Calendar{Year: 2019, Month: time.February, Day: 30}, 0},
		{"invalid month", model.Calendar{Year: 2019, Month: 13}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectByCalendar(sessions, tt.cal)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseBound(t *testing.T) {
	tests := []struct {
		in    string
		isEnd bool
		want  time.Time
	}{
		{"2019-01-02", false, time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2019-01-02", true, time.Date(2019, 1, 2, 23, 59, 59, 999_999_999, time.UTC)},
		{"2019-01-02 09:00:00", true, time.Date(2019, 1, 2, 9, 0, 0, 0, time.UTC)},
		{"2019-01-02T09:00", false, time.Date(2019, 1, 2, 9, 0, 0, 0, time.UTC)},
		{"2019-01-02T09:00:00+01:00", false, time.Date(2019, 1, 2, 8, 0, 0, 0, time.UTC)},
		{" 2019-01-02 ", false, time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseBound(tt.in, tt.isEnd)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Equal(tt.want), "ParseBound(%q, %v) = %v, want %v", tt.in, tt.isEnd, got, tt.want)
	}

	for _, bad := range []string{"", "yesterday", "01/02/2019", "2019-13-01"} {
		_, err := ParseBound(bad, false)
		assert.Error(t, err, bad)
	}
}

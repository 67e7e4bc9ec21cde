package model

import (
	"math"
	"time"
)

// SummaryStats holds the top-level aggregate across a selected window.
type SummaryStats struct {
	TotalSessions     int           `json:"total_sessions"`
	DistinctUsers     int           `json:"distinct_users"`
	DistinctTutorials int           `json:"distinct_tutorials"`
	ActiveDays        int           `json:"active_days"`
	TotalDuration     time.Duration `json:"-"`

	FirstEnd time.Time `json:"first_end"`
	LastEnd  time.Time `json:"last_end"`

	AvgSessionMinutes float64 `json:"avg_session_minutes"`
	SessionsPerDay    float64 `json:"sessions_per_day"`
	ViewsPerUser      float64 `json:"views_per_user"`
}

// DailyActivity holds activity metrics for one calendar day, keyed by the
// day of session end.
type DailyActivity struct {
	Date              time.Time     `json:"date"`
	Sessions          int           `json:"session_count"`
	DistinctUsers     int           `json:"distinct_users"`
	TotalDuration     time.Duration `json:"-"`
	AvgSessionMinutes float64       `json:"avg_session_duration_minutes"`
	SessionsPerUser   float64       `json:"sessions_per_user"`
}

// RankEntry is one row of a per-day top-N ranking. Unresolved marks the
// group of sessions whose tutorial or tag did not resolve; Name is empty
// for it.
type RankEntry struct {
	Date       time.Time `json:"date"`
	Name       string    `json:"name"`
	Unresolved bool      `json:"unresolved,omitempty"`
	Count      int       `json:"count"`
}

// HistogramSpec describes fixed-width buckets over [Start, End).
type HistogramSpec struct {
	Start float64 `json:"start" toml:"start"`
	End   float64 `json:"end" toml:"end"`
	Size  float64 `json:"size" toml:"size"`
}

// MaxHistogramBuckets bounds the bucket count a spec may produce.
const MaxHistogramBuckets = 100_000

// Valid reports whether s describes between one and MaxHistogramBuckets
// finite buckets. NaN bounds or widths are invalid.
func (s HistogramSpec) Valid() bool {
	if !(s.Size > 0) || !(s.End > s.Start) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return false
	}
	return math.Ceil((s.End-s.Start)/s.Size) <= MaxHistogramBuckets
}

// HistogramBucket is one bucket of a percent-normalized histogram.
type HistogramBucket struct {
	Lower   float64 `json:"lower"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Histogram is a percent-normalized distribution. Percentages are relative
// to Total, which includes the samples counted in Under and Over.
type Histogram struct {
	Spec    HistogramSpec     `json:"spec"`
	Buckets []HistogramBucket `json:"buckets"`
	Total   int               `json:"total"`
	Under   int               `json:"under"`
	Over    int               `json:"over"`
}

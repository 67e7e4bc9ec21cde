// Package pipeline orchestrates dataset loading, caching, windowing and
// metric aggregation.
package pipeline

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/theirongolddev/tutstat/internal/model"
)

// dayOf returns midnight UTC of the day t falls on.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func userOf(s model.Session) string { return s.UserID }

func durationOf(s model.Session) time.Duration { return s.Duration() }

// Summarize computes the top-level statistics of sessions ending within
// [start, end].
func Summarize(ds *model.Dataset, start, end time.Time) model.SummaryStats {
	return Summary(SelectRange(ds.Sessions(), start, end))
}

// Summary computes the top-level statistics of an already selected set of
// sessions.
func Summary(sessions []model.Session) model.SummaryStats {
	var stats model.SummaryStats
	if len(sessions) == 0 {
		return stats
	}

	stats.TotalSessions = len(sessions)
	stats.DistinctUsers = len(lo.UniqBy(sessions, userOf))
	stats.DistinctTutorials = len(lo.UniqBy(sessions, func(s model.Session) int { return s.TutorialID }))
	stats.ActiveDays = len(lo.UniqBy(sessions, func(s model.Session) time.Time { return dayOf(s.EndAt) }))
	stats.TotalDuration = lo.SumBy(sessions, durationOf)

	for _, s := range sessions {
		if stats.FirstEnd.IsZero() || s.EndAt.Before(stats.FirstEnd) {
			stats.FirstEnd = s.EndAt
		}
		if s.EndAt.After(stats.LastEnd) {
			stats.LastEnd = s.EndAt
		}
	}

	stats.AvgSessionMinutes = stats.TotalDuration.Minutes() / float64(stats.TotalSessions)
	stats.SessionsPerDay = float64(stats.TotalSessions) / float64(stats.ActiveDays)
	stats.ViewsPerUser = float64(stats.TotalSessions) / float64(stats.DistinctUsers)

	return stats
}

// DailyActivitySummary buckets sessions ending within [start, end] by the
// UTC day of their end time.
func DailyActivitySummary(ds *model.Dataset, start, end time.Time) []model.DailyActivity {
	return DailyActivity(SelectRange(ds.Sessions(), start, end))
}

// DailyActivity computes per-day activity over already selected sessions.
// Only days with at least one session get a row; rows are sorted by date
// ascending. The average duration is the day's total session time divided
// by its distinct users.
func DailyActivity(sessions []model.Session) []model.DailyActivity {
	byDay := lo.GroupBy(sessions, func(s model.Session) time.Time { return dayOf(s.EndAt) })

	days := make([]model.DailyActivity, 0, len(byDay))
	for day, group := range byDay {
		users := len(lo.UniqBy(group, userOf))
		total := lo.SumBy(group, durationOf)
		days = append(days, model.DailyActivity{
			Date:              day,
			Sessions:          len(group),
			DistinctUsers:     users,
			TotalDuration:     total,
			AvgSessionMinutes: total.Minutes() / float64(users),
			SessionsPerUser:   float64(len(group)) / float64(users),
		})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	return days
}

// PerUserAvgSessionDuration returns each user's mean session duration in
// fractional minutes, over sessions ending within [start, end].
func PerUserAvgSessionDuration(ds *model.Dataset, start, end time.Time) map[string]float64 {
	return AvgDurationByUser(SelectRange(ds.Sessions(), start, end))
}

// AvgDurationByUser computes the per-user mean duration in minutes over
// already selected sessions.
func AvgDurationByUser(sessions []model.Session) map[string]float64 {
	return lo.MapValues(lo.GroupBy(sessions, userOf), func(group []model.Session, _ string) float64 {
		return lo.SumBy(group, durationOf).Minutes() / float64(len(group))
	})
}

// PerUserViewCount returns the number of sessions per user ending within
// [start, end].
func PerUserViewCount(ds *model.Dataset, start, end time.Time) map[string]int {
	return ViewsByUser(SelectRange(ds.Sessions(), start, end))
}

// ViewsByUser counts sessions per user over already selected sessions.
func ViewsByUser(sessions []model.Session) map[string]int {
	return lo.CountValuesBy(sessions, userOf)
}

// UserStat is one row of the per-user table.
type UserStat struct {
	UserID     string  `json:"user_id"`
	Views      int     `json:"views"`
	AvgMinutes float64 `json:"avg_session_minutes"`
}

// UserStats combines views and average duration per user, sorted by views
// descending and then by user id.
func UserStats(sessions []model.Session) []UserStat {
	views := ViewsByUser(sessions)
	avg := AvgDurationByUser(sessions)

	stats := lo.Map(lo.Keys(views), func(id string, _ int) UserStat {
		return UserStat{UserID: id, Views: views[id], AvgMinutes: avg[id]}
	})
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Views != stats[j].Views {
			return stats[i].Views > stats[j].Views
		}
		return stats[i].UserID < stats[j].UserID
	})
	return stats
}

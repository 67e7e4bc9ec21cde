// Package model defines domain types for tutstat sessions and metrics.
package model

import "time"

// Session is one row of the sessions fact table.
type Session struct {
	UserID     string
	TutorialID int
	StartAt    time.Time
	EndAt      time.Time
}

// Duration returns EndAt - StartAt. It may be zero, and negative when the
// loader was told to keep malformed rows.
func (s Session) Duration() time.Duration {
	return s.EndAt.Sub(s.StartAt)
}

// Tutorial is one row of the tutorials dimension table.
type Tutorial struct {
	ID    int
	Title string
	TagID int
}

// Tag is one row of the tags dimension table.
type Tag struct {
	ID   int
	Name string
}

// JoinedSession is a session denormalized against its tutorial and tag.
// Tutorial and Tag are nil when the foreign key did not resolve.
type JoinedSession struct {
	Session
	Tutorial *Tutorial
	Tag      *Tag
}

// Calendar selects sessions by the calendar parts of their end time.
// Month 0 matches any month; Day 0 matches any day. Day is ignored when
// Month is 0.
type Calendar struct {
	Year  int
	Month time.Month
	Day   int
}

// Valid reports whether c names a real calendar period. Out-of-range parts
// such as month 13 or February 30 are invalid rather than normalized.
func (c Calendar) Valid() bool {
	if c.Month < 0 || c.Month > time.December || c.Day < 0 {
		return false
	}
	if c.Month == 0 || c.Day == 0 {
		return true
	}
	t := time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == c.Year && t.Month() == c.Month && t.Day() == c.Day
}

// Bounds returns the first and last instant (inclusive) covered by c in UTC.
func (c Calendar) Bounds() (time.Time, time.Time) {
	switch {
	case c.Month == 0:
		start := time.Date(c.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	case c.Day == 0:
		start := time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	default:
		start := time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
}

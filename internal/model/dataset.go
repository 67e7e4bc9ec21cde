package model

import "time"

// Dataset holds the three loaded relations. It is built once and never
// mutated afterwards, so it can be shared between goroutines without
// locking. Slices returned by its accessors must be treated as read-only.
type Dataset struct {
	sessions  []Session
	tutorials []Tutorial
	tags      []Tag

	tutorialIdx map[int]int
	tagIdx      map[int]int

	first time.Time
	last  time.Time
}

// NewDataset builds a Dataset and its id indexes. When a dimension id is
// repeated, the first row wins.
func NewDataset(sessions []Session, tutorials []Tutorial, tags []Tag) *Dataset {
	ds := &Dataset{
		sessions:    sessions,
		tutorials:   tutorials,
		tags:        tags,
		tutorialIdx: make(map[int]int, len(tutorials)),
		tagIdx:      make(map[int]int, len(tags)),
	}

	for i, t := range tutorials {
		if _, ok := ds.tutorialIdx[t.ID]; !ok {
			ds.tutorialIdx[t.ID] = i
		}
	}
	for i, t := range tags {
		if _, ok := ds.tagIdx[t.ID]; !ok {
			ds.tagIdx[t.ID] = i
		}
	}

	for _, s := range sessions {
		if ds.first.IsZero() || s.StartAt.Before(ds.first) {
			ds.first = s.StartAt
		}
		if ds.last.IsZero() || s.EndAt.After(ds.last) {
			ds.last = s.EndAt
		}
	}

	return ds
}

// Sessions returns the fact table.
func (d *Dataset) Sessions() []Session { return d.sessions }

// Tutorials returns the tutorials dimension table.
func (d *Dataset) Tutorials() []Tutorial { return d.tutorials }

// Tags returns the tags dimension table.
func (d *Dataset) Tags() []Tag { return d.tags }

// Tutorial looks up a tutorial by id.
func (d *Dataset) Tutorial(id int) (Tutorial, bool) {
	i, ok := d.tutorialIdx[id]
	if !ok {
		return Tutorial{}, false
	}
	return d.tutorials[i], true
}

// Tag looks up a tag by id.
func (d *Dataset) Tag(id int) (Tag, bool) {
	i, ok := d.tagIdx[id]
	if !ok {
		return Tag{}, false
	}
	return d.tags[i], true
}

// Span returns the earliest session start and the latest session end.
// Both are zero for an empty dataset.
func (d *Dataset) Span() (time.Time, time.Time) {
	return d.first, d.last
}

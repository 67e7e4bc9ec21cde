// Package source discovers and parses the raw tutorial dataset tables.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/tutstat/internal/model"
)

// Accepted timestamp layouts, tried in order. Values without an offset are
// taken as UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseResult holds the output of parsing a single table. Only the slice
// matching Table is populated.
type ParseResult struct {
	Table     Table
	Sessions  []model.Session
	Tutorials []model.Tutorial
	Tags      []model.Tag
	Rows      int // data rows read, including rejected ones
	Rejected  int // sessions dropped by the negative-duration policy
	Err       error
}

// ParseTable opens t from the archive and parses it with its schema.
func ParseTable(a *Archive, t Table, opts Options) ParseResult {
	rc, err := a.Open(t)
	if err != nil {
		return ParseResult{Table: t, Err: err}
	}
	defer func() { _ = rc.Close() }()

	switch t {
	case TableTutorials:
		return ParseTutorials(rc)
	case TableTags:
		return ParseTags(rc)
	default:
		return ParseSessions(rc, opts)
	}
}

// ParseSessions parses sessions.csv.
func ParseSessions(r io.Reader, opts Options) ParseResult {
	res := ParseResult{Table: TableSessions}
	res.Err = readTable(r, SessionsSchema, func(rec *record) error {
		res.Rows++
		s := model.Session{
			UserID:     rec.str("user_id"),
			TutorialID: rec.integer("tutorial_id"),
			StartAt:    rec.timestamp("session_start_at"),
			EndAt:      rec.timestamp("session_end_at"),
		}
		if opts.RejectNegativeDurations && s.EndAt.Before(s.StartAt) {
			res.Rejected++
			return nil
		}
		res.Sessions = append(res.Sessions, s)
		return nil
	})
	return res
}

// ParseTutorials parses tutorials.csv, dropping slug, description and created_at.
func ParseTutorials(r io.Reader) ParseResult {
	res := ParseResult{Table: TableTutorials}
	res.Err = readTable(r, TutorialsSchema, func(rec *record) error {
		res.Rows++
		res.Tutorials = append(res.Tutorials, model.Tutorial{
			ID:    rec.integer("tutorial_id"),
			Title: rec.str("title"),
			TagID: rec.integer("tag_id"),
		})
		return nil
	})
	return res
}

// ParseTags parses tags.csv, dropping description and tag_type.
func ParseTags(r io.Reader) ParseResult {
	res := ParseResult{Table: TableTags}
	res.Err = readTable(r, TagsSchema, func(rec *record) error {
		res.Rows++
		res.Tags = append(res.Tags, model.Tag{
			ID:   rec.integer("id"),
			Name: rec.str("name"),
		})
		return nil
	})
	return res
}

// cell is one coerced value. Only the field matching the column kind is set.
type cell struct {
	s string
	n int
	t time.Time
}

// boundColumn is a schema column located in the header.
type boundColumn struct {
	Column
	pos int
}

// record is the current CSV row after every kept column has been coerced
// to its declared kind.
type record struct {
	slot  map[string]int
	cells []cell
}

func (r *record) str(col string) string          { return r.cells[r.slot[col]].s }
func (r *record) integer(col string) int         { return r.cells[r.slot[col]].n }
func (r *record) timestamp(col string) time.Time { return r.cells[r.slot[col]].t }

// coerce converts the raw field of c to c.Kind.
func coerce(table Table, c boundColumn, fields []string, line int) (cell, error) {
	mismatch := func(v, reason string) error {
		return &SchemaMismatchError{Table: table, Column: c.Name, Kind: c.Kind, Line: line, Value: v, Reason: reason}
	}
	if c.pos >= len(fields) {
		return cell{}, mismatch("", "field missing")
	}
	v := strings.TrimSpace(fields[c.pos])

	switch c.Kind {
	case KindInt:
		n, ok := parseInt(v)
		if !ok {
			return cell{}, mismatch(v, "not an "+c.Kind.String())
		}
		return cell{n: n}, nil
	case KindTimestamp:
		ts, ok := parseTimestamp(v)
		if !ok {
			return cell{}, mismatch(v, "not a "+c.Kind.String())
		}
		return cell{t: ts}, nil
	default:
		return cell{s: v}, nil
	}
}

// parseInt accepts decimal integers and the "12.0" form that integer
// columns take after a round trip through a float dtype. Exponents and
// non-zero fractions are rejected.
func parseInt(v string) (int, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	i := strings.IndexByte(v, '.')
	if i <= 0 || i == len(v)-1 || strings.Trim(v[i+1:], "0") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(v[:i])
	return n, err == nil
}

// parseTimestamp parses v with the accepted layouts and normalizes to UTC.
func parseTimestamp(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// readTable reads a headered CSV, checks the schema's required columns,
// coerces every kept column by its declared kind and calls fn for every
// data row. Dropped columns are never coerced.
func readTable(r io.Reader, schema Schema, fn func(*record) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			first := schema.Columns[0]
			return &SchemaMismatchError{Table: schema.Table, Column: first.Name, Kind: first.Kind, Reason: "empty table, header row missing"}
		}
		return fmt.Errorf("reading %s header: %w", schema.Table.FileName(), err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var cols []boundColumn
	slot := make(map[string]int, len(schema.Columns))
	for _, c := range schema.Columns {
		pos, ok := index[c.Name]
		if !ok {
			if c.Required {
				return &SchemaMismatchError{Table: schema.Table, Column: c.Name, Kind: c.Kind, Reason: "required column absent"}
			}
			continue
		}
		if c.Drop {
			continue
		}
		slot[c.Name] = len(cols)
		cols = append(cols, boundColumn{Column: c, pos: pos})
	}

	rec := &record{slot: slot, cells: make([]cell, len(cols))}
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return &SchemaMismatchError{Table: schema.Table, Line: pe.Line, Reason: pe.Err.Error()}
			}
			return fmt.Errorf("reading %s: %w", schema.Table.FileName(), err)
		}
		line, _ := cr.FieldPos(0)
		for i, c := range cols {
			v, err := coerce(schema.Table, c, fields, line)
			if err != nil {
				return err
			}
			rec.cells[i] = v
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

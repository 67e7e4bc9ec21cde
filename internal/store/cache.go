// Package store provides a SQLite-backed cache for the parsed dataset.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/tutstat/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache holds the parsed tables of one source so later runs can skip the
// CSV parse when the source has not changed.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SourceInfo identifies the source a cached dataset was parsed from.
type SourceInfo struct {
	Path           string
	MtimeNs        int64
	SizeBytes      int64
	RejectNegative bool
	RejectedRows   int
	LoadedAt       time.Time
	Files          []FileInfo
}

// FileInfo is the tracked identity of one table file.
type FileInfo struct {
	Table     string
	FilePath  string
	MtimeNs   int64
	SizeBytes int64
}

// Matches reports whether other describes the same unchanged source
// parsed under the same load policy. Every table file must match on its
// own; a table replaced by an older file of equal size is still a change.
func (s SourceInfo) Matches(other SourceInfo) bool {
	if s.Path != other.Path ||
		s.MtimeNs != other.MtimeNs ||
		s.SizeBytes != other.SizeBytes ||
		s.RejectNegative != other.RejectNegative ||
		len(s.Files) != len(other.Files) {
		return false
	}
	byTable := make(map[string]FileInfo, len(s.Files))
	for _, f := range s.Files {
		byTable[f.Table] = f
	}
	for _, f := range other.Files {
		if byTable[f.Table] != f {
			return false
		}
	}
	return true
}

// TrackedSource returns the tracking row for path, if any.
func (c *Cache) TrackedSource(path string) (SourceInfo, bool, error) {
	var (
		info     SourceInfo
		reject   int
		loadedAt string
	)
	err := c.db.QueryRow(`SELECT path, mtime_ns, size_bytes, reject_negative, rejected_rows, loaded_at
		FROM source_tracker WHERE path = ?`, path).
		Scan(&info.Path, &info.MtimeNs, &info.SizeBytes, &reject, &info.RejectedRows, &loadedAt)
	if err == sql.ErrNoRows {
		return SourceInfo{}, false, nil
	}
	if err != nil {
		return SourceInfo{}, false, fmt.Errorf("reading source tracker: %w", err)
	}
	info.RejectNegative = reject != 0
	info.LoadedAt, _ = time.Parse(time.RFC3339, loadedAt)

	rows, err := c.db.Query(`SELECT table_name, file_path, mtime_ns, size_bytes
		FROM file_tracker ORDER BY table_name`)
	if err != nil {
		return SourceInfo{}, false, fmt.Errorf("reading file tracker: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var f FileInfo
		if err := rows.Scan(&f.Table, &f.FilePath, &f.MtimeNs, &f.SizeBytes); err != nil {
			return SourceInfo{}, false, fmt.Errorf("reading file tracker: %w", err)
		}
		info.Files = append(info.Files, f)
	}
	if err := rows.Err(); err != nil {
		return SourceInfo{}, false, fmt.Errorf("reading file tracker: %w", err)
	}
	return info, true, nil
}

// SaveDataset replaces the cached tables and tracking info in a single
// transaction. Only one source is cached at a time.
func (c *Cache) SaveDataset(ds *model.Dataset, info SourceInfo) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"sessions", "tutorials", "tags", "source_tracker", "file_tracker"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO sessions
		(user_id, tutorial_id, session_start_at, session_end_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	for _, s := range ds.Sessions() {
		if _, err := stmt.Exec(s.UserID, s.TutorialID, formatTime(s.StartAt), formatTime(s.EndAt)); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("inserting session: %w", err)
		}
	}
	_ = stmt.Close()

	stmt, err = tx.Prepare("INSERT INTO tutorials (tutorial_id, title, tag_id) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	for _, t := range ds.Tutorials() {
		if _, err := stmt.Exec(t.ID, t.Title, t.TagID); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("inserting tutorial: %w", err)
		}
	}
	_ = stmt.Close()

	stmt, err = tx.Prepare("INSERT INTO tags (id, name) VALUES (?, ?)")
	if err != nil {
		return err
	}
	for _, t := range ds.Tags() {
		if _, err := stmt.Exec(t.ID, t.Name); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("inserting tag: %w", err)
		}
	}
	_ = stmt.Close()

	reject := 0
	if info.RejectNegative {
		reject = 1
	}
	loadedAt := info.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}
	_, err = tx.Exec(`INSERT INTO source_tracker
		(path, mtime_ns, size_bytes, reject_negative, rejected_rows, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		info.Path, info.MtimeNs, info.SizeBytes, reject, info.RejectedRows,
		loadedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("updating source tracker: %w", err)
	}

	for _, f := range info.Files {
		_, err := tx.Exec(`INSERT INTO file_tracker (table_name, file_path, mtime_ns, size_bytes)
			VALUES (?, ?, ?, ?)`, f.Table, f.FilePath, f.MtimeNs, f.SizeBytes)
		if err != nil {
			return fmt.Errorf("updating file tracker: %w", err)
		}
	}

	return tx.Commit()
}

// LoadDataset reads the cached tables back into a Dataset.
func (c *Cache) LoadDataset() (*model.Dataset, error) {
	sessions, err := c.loadSessions()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query("SELECT tutorial_id, title, tag_id FROM tutorials ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tutorials []model.Tutorial
	for rows.Next() {
		var t model.Tutorial
		if err := rows.Scan(&t.ID, &t.Title, &t.TagID); err != nil {
			return nil, err
		}
		tutorials = append(tutorials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := c.db.Query("SELECT id, name FROM tags ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer func() { _ = tagRows.Close() }()

	var tags []model.Tag
	for tagRows.Next() {
		var t model.Tag
		if err := tagRows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := tagRows.Err(); err != nil {
		return nil, err
	}

	return model.NewDataset(sessions, tutorials, tags), nil
}

func (c *Cache) loadSessions() ([]model.Session, error) {
	rows, err := c.db.Query(`SELECT user_id, tutorial_id, session_start_at, session_end_at
		FROM sessions ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.Session
	for rows.Next() {
		var (
			s          model.Session
			start, end string
		)
		if err := rows.Scan(&s.UserID, &s.TutorialID, &start, &end); err != nil {
			return nil, err
		}
		if s.StartAt, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("cached session start %q: %w", start, err)
		}
		if s.EndAt, err = time.Parse(time.RFC3339Nano, end); err != nil {
			return nil, fmt.Errorf("cached session end %q: %w", end, err)
		}
		s.StartAt = s.StartAt.UTC()
		s.EndAt = s.EndAt.UTC()
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RowCounts returns the number of cached rows per table.
func (c *Cache) RowCounts() (sessions, tutorials, tags int, err error) {
	if err = c.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessions); err != nil {
		return
	}
	if err = c.db.QueryRow("SELECT COUNT(*) FROM tutorials").Scan(&tutorials); err != nil {
		return
	}
	err = c.db.QueryRow("SELECT COUNT(*) FROM tags").Scan(&tags)
	return
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

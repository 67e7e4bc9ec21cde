package source

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTables = map[string]string{
	"sessions.csv":  "user_id,tutorial_id,session_start_at,session_end_at\nA,1,2019-01-01 09:00:00,2019-01-01 10:00:00\n",
	"tutorials.csv": "tutorial_id,title,slug,description,created_at,tag_id\n1,Intro,intro,,2018-01-01 00:00:00,10\n",
	"tags.csv":      "id,name,description,tag_type\n10,go,,language\n",
}

// writeZip creates a zip archive holding the given entries.
func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readAll(t *testing.T, a *Archive, table Table) string {
	t.Helper()
	rc, err := a.Open(table)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestDiscover_NestedZip(t *testing.T) {
	entries := map[string]string{
		"__MACOSX/assignment/._sessions.csv": "junk",
		"__MACOSX/assignment/sessions.csv":   "junk",
		"assignment/README.txt":              "ignored",
	}
	for name, body := range testTables {
		entries["assignment/"+name] = body
	}
	path := writeZip(t, entries)

	a, err := Discover(path)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, testTables["sessions.csv"], readAll(t, a, TableSessions))
	assert.Equal(t, testTables["tags.csv"], readAll(t, a, TableTags))

	mtime, size := a.Fingerprint()
	assert.NotZero(t, mtime)
	assert.NotZero(t, size)

	stats := a.TableStats()
	require.Len(t, stats, 3)
	assert.Equal(t, TableSessions, stats[0].Table)
	assert.Equal(t, "assignment/sessions.csv", stats[0].Name)
	assert.Equal(t, int64(len(testTables["sessions.csv"])), stats[0].Size)
}

func TestDiscover_Directory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	for name, body := range testTables {
		require.NoError(t, os.WriteFile(filepath.Join(sub, name), []byte(body), 0o600))
	}

	a, err := Discover(dir)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, testTables["tutorials.csv"], readAll(t, a, TableTutorials))

	_, size := a.Fingerprint()
	var want int64
	for _, body := range testTables {
		want += int64(len(body))
	}
	assert.Equal(t, want, size)

	for _, st := range a.TableStats() {
		assert.Equal(t, filepath.Join(sub, st.Table.FileName()), st.Name)
		assert.Equal(t, int64(len(testTables[st.Table.FileName()])), st.Size)
		assert.NotZero(t, st.MtimeNs)
	}
}

func TestDiscover_Unavailable(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "nope.zip"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
	})

	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.zip")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
		_, err := Discover(path)
		assert.True(t, errors.Is(err, ErrSourceUnavailable))
	})

	t.Run("missing table", func(t *testing.T) {
		path := writeZip(t, map[string]string{
			"x/sessions.csv":  testTables["sessions.csv"],
			"x/tutorials.csv": testTables["tutorials.csv"],
		})
		_, err := Discover(path)
		var su *SourceUnavailableError
		require.ErrorAs(t, err, &su)
		assert.Equal(t, TableTags, su.Table)
	})
}

func TestParseTable_FromArchive(t *testing.T) {
	entries := make(map[string]string)
	for name, body := range testTables {
		entries["assignment/"+name] = body
	}
	a, err := Discover(writeZip(t, entries))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	sessions := ParseTable(a, TableSessions, DefaultOptions())
	require.NoError(t, sessions.Err)
	assert.Len(t, sessions.Sessions, 1)

	tutorials := ParseTable(a, TableTutorials, DefaultOptions())
	require.NoError(t, tutorials.Err)
	assert.Equal(t, 10, tutorials.Tutorials[0].TagID)

	tags := ParseTable(a, TableTags, DefaultOptions())
	require.NoError(t, tags.Err)
	assert.Equal(t, "go", tags.Tags[0].Name)
}

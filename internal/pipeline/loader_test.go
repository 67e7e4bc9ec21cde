package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/tutstat/internal/source"
)

const (
	sessionsCSV = `user_id,tutorial_id,session_start_at,session_end_at
A,1,2019-01-01 09:30:00,2019-01-01 10:00:00
B,1,2019-01-01 10:00:00,2019-01-01 11:00:00
A,2,2019-01-02 08:45:00,2019-01-02 09:00:00
C,2,2019-01-02 10:00:00,2019-01-02 09:00:00
`
	tutorialsCSV = `tutorial_id,title,slug,description,created_at,tag_id
1,Intro to Python,intro-python,,2018-01-01 00:00:00,10
2,Go Basics,go-basics,"Types, loops",,11
`
	tagsCSV = `id,name,description,tag_type
10,python,,language
11,go,,language
`
)

// writeDataset writes the three tables into a nested directory and returns
// the dataset root.
func writeDataset(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "assignment")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"sessions.csv":  sessionsCSV,
		"tutorials.csv": tutorialsCSV,
		"tags.csv":      tagsCSV,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadDataset(t *testing.T) {
	ds, err := LoadDataset(
		strings.NewReader(sessionsCSV),
		strings.NewReader(tutorialsCSV),
		strings.NewReader(tagsCSV),
		source.DefaultOptions(),
	)
	require.NoError(t, err)
	assert.Len(t, ds.Sessions(), 3, "negative duration row rejected")
	assert.Len(t, ds.Tutorials(), 2)
	assert.Len(t, ds.Tags(), 2)

	kept, err := LoadDataset(
		strings.NewReader(sessionsCSV),
		strings.NewReader(tutorialsCSV),
		strings.NewReader(tagsCSV),
		source.Options{RejectNegativeDurations: false},
	)
	require.NoError(t, err)
	assert.Len(t, kept.Sessions(), 4)
}

func TestLoadDataset_SchemaMismatch(t *testing.T) {
	_, err := LoadDataset(
		strings.NewReader(sessionsCSV),
		strings.NewReader("tutorial_id,title\n1,x\n"),
		strings.NewReader(tagsCSV),
		source.DefaultOptions(),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "tutorials.csv")
}

func TestLoad(t *testing.T) {
	root := writeDataset(t)

	var calls atomic.Int32
	res, err := Load(root, source.DefaultOptions(), func(current, total int) {
		calls.Add(1)
		assert.LessOrEqual(t, current, total)
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, res.Tables)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 4+2+2, res.Rows)
	assert.Equal(t, root, res.Source)
	assert.NotZero(t, res.Size)
	assert.Len(t, res.Dataset.Sessions(), 3)

	first, last := res.Dataset.Span()
	assert.Equal(t, "2019-01-01 09:30", first.Format("2006-01-02 15:04"))
	assert.Equal(t, "2019-01-02 09:00", last.Format("2006-01-02 15:04"))
}

func TestLoad_SourceUnavailable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.zip"), source.DefaultOptions(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrSourceUnavailable))

	root := writeDataset(t)
	require.NoError(t, os.Remove(filepath.Join(root, "assignment", "tags.csv")))
	_, err = Load(root, source.DefaultOptions(), nil)
	var su *source.SourceUnavailableError
	require.ErrorAs(t, err, &su)
	assert.Equal(t, source.TableTags, su.Table)
}

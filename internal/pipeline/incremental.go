package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/tutstat/internal/source"
	"github.com/theirongolddev/tutstat/internal/store"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	FromCache bool
	// CacheErr is set when the source parsed fine but the cache could not
	// be read or refreshed. The dataset is still valid.
	CacheErr error
}

// LoadWithCache returns the cached dataset when the cache tracks the same
// source, every table file has an unchanged mtime and size, and the load
// policy is the same.
// Otherwise it parses the source and replaces the cached tables.
func LoadWithCache(path string, opts source.Options, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	archive, err := source.Discover(abs)
	if err != nil {
		return nil, fmt.Errorf("discovering %s: %w", path, err)
	}
	mtime, size := archive.Fingerprint()
	stats := archive.TableStats()
	_ = archive.Close()

	current := store.SourceInfo{
		Path:           abs,
		MtimeNs:        mtime,
		SizeBytes:      size,
		RejectNegative: opts.RejectNegativeDurations,
		Files:          make([]store.FileInfo, 0, len(stats)),
	}
	for _, st := range stats {
		current.Files = append(current.Files, store.FileInfo{
			Table:     string(st.Table),
			FilePath:  st.Name,
			MtimeNs:   st.MtimeNs,
			SizeBytes: st.Size,
		})
	}

	result := &CachedLoadResult{}

	tracked, ok, err := cache.TrackedSource(abs)
	if err != nil {
		result.CacheErr = err
	}
	if ok && tracked.Matches(current) {
		ds, err := cache.LoadDataset()
		if err == nil {
			result.LoadResult = LoadResult{
				Dataset:  ds,
				Source:   abs,
				Tables:   len(source.Tables),
				Rows:     len(ds.Sessions()) + len(ds.Tutorials()) + len(ds.Tags()) + tracked.RejectedRows,
				Rejected: tracked.RejectedRows,
				MtimeNs:  mtime,
				Size:     size,
			}
			result.FromCache = true
			if progressFn != nil {
				progressFn(len(source.Tables), len(source.Tables))
			}
			return result, nil
		}
		result.CacheErr = fmt.Errorf("loading cached dataset: %w", err)
	}

	lr, err := Load(abs, opts, progressFn)
	if err != nil {
		return nil, err
	}
	result.LoadResult = *lr

	current.RejectedRows = lr.Rejected
	current.LoadedAt = time.Now()
	if err := cache.SaveDataset(lr.Dataset, current); err != nil {
		result.CacheErr = fmt.Errorf("saving dataset to cache: %w", err)
	}

	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tutstat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tutstat")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "dataset.db")
}

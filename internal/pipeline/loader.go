package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/tutstat/internal/model"
	"github.com/theirongolddev/tutstat/internal/source"
)

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Dataset  *model.Dataset
	Source   string
	Tables   int
	Rows     int
	Rejected int
	MtimeNs  int64
	Size     int64
}

// ProgressFunc is called during loading to report progress.
// current is the number of tables parsed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers the three tables under path (a zip archive or a
// directory) and parses them with a bounded worker pool.
func Load(path string, opts source.Options, progressFn ProgressFunc) (*LoadResult, error) {
	archive, err := source.Discover(path)
	if err != nil {
		return nil, fmt.Errorf("discovering %s: %w", path, err)
	}
	defer func() { _ = archive.Close() }()

	results := parseTables(len(source.Tables), progressFn, func(i int) source.ParseResult {
		return source.ParseTable(archive, source.Tables[i], opts)
	})

	res, err := assemble(results)
	if err != nil {
		return nil, err
	}
	res.Source = path
	res.MtimeNs, res.Size = archive.Fingerprint()
	return res, nil
}

// LoadDataset parses the three raw tables and builds a Dataset.
func LoadDataset(sessions, tutorials, tags io.Reader, opts source.Options) (*model.Dataset, error) {
	readers := []io.Reader{sessions, tutorials, tags}
	results := parseTables(len(readers), nil, func(i int) source.ParseResult {
		switch source.Tables[i] {
		case source.TableTutorials:
			return source.ParseTutorials(readers[i])
		case source.TableTags:
			return source.ParseTags(readers[i])
		default:
			return source.ParseSessions(readers[i], opts)
		}
	})

	res, err := assemble(results)
	if err != nil {
		return nil, err
	}
	return res.Dataset, nil
}

// parseTables runs parse for indexes [0, n) on up to GOMAXPROCS workers.
// Results keep index order.
func parseTables(n int, progressFn ProgressFunc, parse func(int) source.ParseResult) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > n {
		numWorkers = n
	}

	work := make(chan int, n)
	results := make([]source.ParseResult, n)
	var wg sync.WaitGroup
	var processed atomic.Int64

	// Feed work
	for i := 0; i < n; i++ {
		work <- i
	}
	close(work)

	// Spawn workers
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = parse(idx)
				done := processed.Add(1)
				if progressFn != nil {
					progressFn(int(done), n)
				}
			}
		}()
	}

	wg.Wait()
	return results
}

// assemble builds the Dataset from per-table results. The first table
// error, in table order, fails the load.
func assemble(results []source.ParseResult) (*LoadResult, error) {
	res := &LoadResult{Tables: len(results)}

	var (
		sessions  []model.Session
		tutorials []model.Tutorial
		tags      []model.Tag
	)
	for _, pr := range results {
		if pr.Err != nil {
			return nil, fmt.Errorf("parsing %s: %w", pr.Table.FileName(), pr.Err)
		}
		res.Rows += pr.Rows
		res.Rejected += pr.Rejected
		switch pr.Table {
		case source.TableSessions:
			sessions = pr.Sessions
		case source.TableTutorials:
			tutorials = pr.Tutorials
		case source.TableTags:
			tags = pr.Tags
		}
	}

	res.Dataset = model.NewDataset(sessions, tutorials, tags)
	return res, nil
}

// Package daemon provides the long-running read-only query server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theirongolddev/tutstat/internal/logger"
	"github.com/theirongolddev/tutstat/internal/metrics"
	"github.com/theirongolddev/tutstat/internal/model"
	"github.com/theirongolddev/tutstat/internal/pipeline"
	"github.com/theirongolddev/tutstat/internal/source"
	"github.com/theirongolddev/tutstat/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Source    string
	Options   source.Options
	UseCache  bool
	Addr      string
	TopN      int
	Durations model.HistogramSpec
	Views     model.HistogramSpec
}

// Status is served at /v1/status.
type Status struct {
	StartedAt    time.Time `json:"started_at"`
	LoadedAt     time.Time `json:"loaded_at"`
	Source       string    `json:"source"`
	FromCache    bool      `json:"from_cache"`
	Sessions     int       `json:"sessions"`
	Tutorials    int       `json:"tutorials"`
	Tags         int       `json:"tags"`
	RejectedRows int       `json:"rejected_rows"`
	FirstStart   time.Time `json:"first_start,omitempty"`
	LastEnd      time.Time `json:"last_end,omitempty"`
	RequestCount int64     `json:"request_count"`
	ErrorCount   int64     `json:"error_count"`
	// CachedRows is what the SQLite cache held after the load; nil when
	// the cache was not used.
	CachedRows *CachedRows `json:"cached_rows,omitempty"`
}

// CachedRows counts the rows of each cached table.
type CachedRows struct {
	Sessions  int `json:"sessions"`
	Tutorials int `json:"tutorials"`
	Tags      int `json:"tags"`
}

// Service loads the dataset once and answers queries over it. Handlers
// share the dataset without locking since it is never mutated.
type Service struct {
	cfg Config
	log *logger.Logger

	registry *prometheus.Registry
	metrics  metrics.Recorder

	startedAt time.Time
	loaded    atomic.Pointer[loadedDataset]

	requests atomic.Int64
	failures atomic.Int64
}

type loadedDataset struct {
	ds        *model.Dataset
	rejected  int
	fromCache bool
	cached    *CachedRows
	at        time.Time
}

// New returns a new daemon service with the provided config.
func New(cfg Config, log *logger.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Durations.Valid() {
		log.Warnw("invalid durations histogram, using default", "spec", cfg.Durations, "default", pipeline.DefaultDurationSpec)
		cfg.Durations = pipeline.DefaultDurationSpec
	}
	if !cfg.Views.Valid() {
		log.Warnw("invalid views histogram, using default", "spec", cfg.Views, "default", pipeline.DefaultViewSpec)
		cfg.Views = pipeline.DefaultViewSpec
	}

	reg := prometheus.NewRegistry()
	return &Service{
		cfg:       cfg,
		log:       log.With("component", "daemon"),
		registry:  reg,
		metrics:   metrics.NewCollector(reg),
		startedAt: time.Now(),
	}
}

// SetDataset installs an already loaded dataset.
func (s *Service) SetDataset(ds *model.Dataset, rejected int, fromCache bool) {
	s.loaded.Store(&loadedDataset{ds: ds, rejected: rejected, fromCache: fromCache, at: time.Now()})
	s.metrics.SetDatasetRows(string(source.TableSessions), len(ds.Sessions()))
	s.metrics.SetDatasetRows(string(source.TableTutorials), len(ds.Tutorials()))
	s.metrics.SetDatasetRows(string(source.TableTags), len(ds.Tags()))
	s.metrics.SetRejectedRows(rejected)
}

// Load reads the configured source, through the cache when enabled.
func (s *Service) Load() error {
	if s.cfg.UseCache {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			defer func() { _ = cache.Close() }()
			cr, loadErr := pipeline.LoadWithCache(s.cfg.Source, s.cfg.Options, cache, nil)
			if loadErr == nil {
				if cr.CacheErr != nil {
					s.log.Warnw("dataset cache unavailable", "error", cr.CacheErr)
				}
				s.SetDataset(cr.Dataset, cr.Rejected, cr.FromCache)
				s.recordCachedRows(cache)
				s.logLoaded(cr.Dataset, cr.Rejected, cr.FromCache)
				return nil
			}
			if errors.Is(loadErr, source.ErrSourceUnavailable) || errors.Is(loadErr, source.ErrSchemaMismatch) {
				return loadErr
			}
			s.log.Warnw("cached load failed, parsing source", "error", loadErr)
		} else {
			s.log.Warnw("opening dataset cache", "error", err)
		}
	}

	result, err := pipeline.Load(s.cfg.Source, s.cfg.Options, nil)
	if err != nil {
		return err
	}
	s.SetDataset(result.Dataset, result.Rejected, false)
	s.logLoaded(result.Dataset, result.Rejected, false)
	return nil
}

// recordCachedRows attaches the cache's row counts to the loaded dataset.
func (s *Service) recordCachedRows(cache *store.Cache) {
	sessions, tutorials, tags, err := cache.RowCounts()
	if err != nil {
		s.log.Warnw("counting cached rows", "error", err)
		return
	}
	l := s.loaded.Load()
	if l == nil {
		return
	}
	withCounts := *l
	withCounts.cached = &CachedRows{Sessions: sessions, Tutorials: tutorials, Tags: tags}
	s.loaded.Store(&withCounts)
}

func (s *Service) logLoaded(ds *model.Dataset, rejected int, fromCache bool) {
	s.log.Infow("dataset loaded",
		"source", s.cfg.Source,
		"sessions", len(ds.Sessions()),
		"tutorials", len(ds.Tutorials()),
		"tags", len(ds.Tags()),
		"from_cache", fromCache,
	)
	if rejected > 0 {
		s.log.Warnw("rejected sessions with negative duration", "count", rejected)
	}
}

// Run loads the dataset if needed and serves HTTP until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.loaded.Load() == nil {
		if err := s.Load(); err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Infow("listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Infow("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// Status returns the current server status.
func (s *Service) Status() Status {
	st := Status{
		StartedAt:    s.startedAt,
		Source:       s.cfg.Source,
		RequestCount: s.requests.Load(),
		ErrorCount:   s.failures.Load(),
	}
	if l := s.loaded.Load(); l != nil {
		st.LoadedAt = l.at
		st.FromCache = l.fromCache
		st.Sessions = len(l.ds.Sessions())
		st.Tutorials = len(l.ds.Tutorials())
		st.Tags = len(l.ds.Tags())
		st.RejectedRows = l.rejected
		st.CachedRows = l.cached
		st.FirstStart, st.LastEnd = l.ds.Span()
	}
	return st
}

func (s *Service) dataset() *model.Dataset {
	if l := s.loaded.Load(); l != nil {
		return l.ds
	}
	return nil
}

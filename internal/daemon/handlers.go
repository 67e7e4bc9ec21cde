package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/tutstat/internal/metrics"
	"github.com/theirongolddev/tutstat/internal/model"
	"github.com/theirongolddev/tutstat/internal/pipeline"
)

// Handler returns the HTTP API of the service.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireDataset)
			r.Get("/summary", s.handleSummary)
			r.Get("/daily", s.handleDaily)
			r.Get("/users/durations", s.handleUserDurations)
			r.Get("/users/views", s.handleUserViews)
			r.Get("/top/tags", s.handleTopTags)
			r.Get("/top/tutorials", s.handleTopTutorials)
		})
	})

	return r
}

func (s *Service) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		s.requests.Add(1)
		if status >= http.StatusBadRequest {
			s.failures.Add(1)
		}
		elapsed := time.Since(start)
		s.metrics.RecordRequest(route, status, elapsed)
		s.log.Debugw("request", "method", r.Method, "path", r.URL.Path, "status", status, "elapsed", elapsed)
	})
}

func (s *Service) requireDataset(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.dataset() == nil {
			writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// query holds the parsed range parameters of a request.
type query struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// parseRange reads start and end, defaulting to the dataset span.
func parseRange(r *http.Request, ds *model.Dataset) (query, error) {
	q := query{}
	q.Start, q.End = ds.Span()

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := pipeline.ParseBound(v, false)
		if err != nil {
			return q, fmt.Errorf("start: %w", err)
		}
		q.Start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := pipeline.ParseBound(v, true)
		if err != nil {
			return q, fmt.Errorf("end: %w", err)
		}
		q.End = t
	}
	return q, nil
}

func (s *Service) parseTop(r *http.Request) (int, error) {
	v := r.URL.Query().Get("top")
	if v == "" {
		return s.cfg.TopN, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("top: %q is not an integer", v)
	}
	return n, nil
}

type summaryResponse struct {
	query
	Summary      model.SummaryStats `json:"summary"`
	TotalMinutes float64            `json:"total_minutes"`
}

type dailyResponse struct {
	query
	Days []model.DailyActivity `json:"days"`
}

type durationsResponse struct {
	query
	Users     map[string]float64 `json:"users"`
	Histogram model.Histogram    `json:"histogram"`
}

type viewsResponse struct {
	query
	Users     map[string]int  `json:"users"`
	Histogram model.Histogram `json:"histogram"`
}

type rankingResponse struct {
	query
	Top     int               `json:"top"`
	Entries []model.RankEntry `json:"entries"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset()
	q, err := parseRange(r, ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats := pipeline.Summarize(ds, q.Start, q.End)
	writeJSON(w, http.StatusOK, summaryResponse{query: q, Summary: stats, TotalMinutes: stats.TotalDuration.Minutes()})
}

func (s *Service) handleDaily(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset()
	q, err := parseRange(r, ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dailyResponse{query: q, Days: pipeline.DailyActivitySummary(ds, q.Start, q.End)})
}

func (s *Service) handleUserDurations(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset()
	q, err := parseRange(r, ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	users := pipeline.PerUserAvgSessionDuration(ds, q.Start, q.End)
	writeJSON(w, http.StatusOK, durationsResponse{
		query:     q,
		Users:     users,
		Histogram: pipeline.DurationHistogram(users, s.cfg.Durations),
	})
}

func (s *Service) handleUserViews(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset()
	q, err := parseRange(r, ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	users := pipeline.PerUserViewCount(ds, q.Start, q.End)
	writeJSON(w, http.StatusOK, viewsResponse{
		query:     q,
		Users:     users,
		Histogram: pipeline.ViewCountHistogram(users, s.cfg.Views),
	})
}

func (s *Service) handleTopTags(w http.ResponseWriter, r *http.Request) {
	s.handleRanking(w, r, pipeline.DailyTopTags)
}

func (s *Service) handleTopTutorials(w http.ResponseWriter, r *http.Request) {
	s.handleRanking(w, r, pipeline.DailyTopTutorials)
}

func (s *Service) handleRanking(w http.ResponseWriter, r *http.Request, rank func(*model.Dataset, time.Time, time.Time, int) []model.RankEntry) {
	ds := s.dataset()
	q, err := parseRange(r, ds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	top, err := s.parseTop(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rankingResponse{query: q, Top: top, Entries: rank(ds, q.Start, q.End, top)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

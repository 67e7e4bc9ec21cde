package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

func TestRecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequest("/v1/daily", http.StatusOK, 5*time.Millisecond)
	c.RecordRequest("/v1/daily", http.StatusOK, 7*time.Millisecond)
	c.RecordRequest("/v1/daily", http.StatusBadRequest, time.Millisecond)

	mf := findFamily(t, reg, "tutstat_http_requests_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		var status string
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				status = lp.GetValue()
			}
		}
		want := map[string]float64{"200": 2, "400": 1}[status]
		if got := m.GetCounter().GetValue(); got != want {
			t.Errorf("requests{status_code=%s} = %v, want %v", status, got, want)
		}
	}

	lat := findFamily(t, reg, "tutstat_query_duration_seconds")
	if got := lat.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("latency sample count = %d, want 3", got)
	}
}

func TestDatasetGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetDatasetRows("sessions", 120)
	c.SetDatasetRows("sessions", 150)
	c.SetRejectedRows(4)

	rows := findFamily(t, reg, "tutstat_dataset_rows")
	if got := rows.GetMetric()[0].GetGauge().GetValue(); got != 150 {
		t.Errorf("dataset_rows = %v, want 150", got)
	}
	rejected := findFamily(t, reg, "tutstat_rejected_rows")
	if got := rejected.GetMetric()[0].GetGauge().GetValue(); got != 4 {
		t.Errorf("rejected_rows = %v, want 4", got)
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.SetRejectedRows(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tutstat_rejected_rows 1") {
		t.Errorf("response should contain tutstat_rejected_rows, got:\n%s", body)
	}
}

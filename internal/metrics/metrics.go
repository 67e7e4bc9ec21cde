// Package metrics provides the Prometheus collectors of the query server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the query server.
type Recorder interface {
	RecordRequest(route string, status int, elapsed time.Duration)
	SetDatasetRows(table string, rows int)
	SetRejectedRows(rows int)
}

// Collector records query server metrics in Prometheus collectors.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	datasetRows  *prometheus.GaugeVec
	rejectedRows prometheus.Gauge
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tutstat_http_requests_total",
			Help: "Query requests by route and status code.",
		}, []string{"route", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tutstat_query_duration_seconds",
			Help:    "Time spent answering a query, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		datasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tutstat_dataset_rows",
			Help: "Rows loaded per dataset table.",
		}, []string{"table"}),
		rejectedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tutstat_rejected_rows",
			Help: "Session rows rejected at load for a negative duration.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.datasetRows,
		c.rejectedRows,
	)

	return c
}

// RecordRequest records one answered request.
func (c *Collector) RecordRequest(route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetDatasetRows sets the loaded row count of table.
func (c *Collector) SetDatasetRows(table string, rows int) {
	c.datasetRows.WithLabelValues(table).Set(float64(rows))
}

// SetRejectedRows sets the number of rows rejected at load.
func (c *Collector) SetRejectedRows(rows int) {
	c.rejectedRows.Set(float64(rows))
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

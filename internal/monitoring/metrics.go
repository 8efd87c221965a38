// Package monitoring exposes Prometheus collectors for the dashboard build
// and its HTTP server.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/covidmap/internal/geo"
	"github.com/sells-group/covidmap/internal/normalize"
)

const namespace = "covidmap"

// Metrics holds the collectors for one process.
type Metrics struct {
	TableRows       prometheus.Gauge
	SourceRows      prometheus.Gauge
	FilteredRows    prometheus.Gauge
	RejectedRows    prometheus.Gauge
	MissingValues   *prometheus.GaugeVec
	BoundaryMissing prometheus.Gauge
	BoundaryUnused  prometheus.Gauge
	BuildDuration   prometheus.Gauge
	BuildInfo       *prometheus.GaugeVec

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "rows",
			Help:      "Counties in the normalized table.",
		}),
		SourceRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "source_rows",
			Help:      "Records read from the tabular source.",
		}),
		FilteredRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "filtered_rows",
			Help:      "Records dropped by the county code range filter.",
		}),
		RejectedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "rejected_rows",
			Help:      "Records rejected with a parse error.",
		}),
		MissingValues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "missing_values",
			Help:      "Counties with no data for a metric.",
		}, []string{"metric"}),
		BoundaryMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "boundaries",
			Name:      "missing",
			Help:      "Table counties without a boundary feature.",
		}),
		BoundaryUnused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "boundaries",
			Name:      "unused",
			Help:      "Boundary features without a table row.",
		}),
		BuildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "duration_seconds",
			Help:      "Time taken to load and assemble the dashboard.",
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "build",
			Name:      "info",
			Help:      "Constant 1, labeled with the active preset and build id.",
		}, []string{"preset", "build_id"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TableRows,
			m.SourceRows,
			m.FilteredRows,
			m.RejectedRows,
			m.MissingValues,
			m.BoundaryMissing,
			m.BoundaryUnused,
			m.BuildDuration,
			m.BuildInfo,
			m.Requests,
			m.RequestDuration,
		)
	}
	return m
}

// ObserveReport records the outcome of a normalization pass.
func (m *Metrics) ObserveReport(r normalize.Report) {
	m.SourceRows.Set(float64(r.Total))
	m.TableRows.Set(float64(r.Kept))
	m.FilteredRows.Set(float64(r.Filtered))
	m.RejectedRows.Set(float64(len(r.Rejected)))
	for key, n := range r.Missing {
		m.MissingValues.WithLabelValues(string(key)).Set(float64(n))
	}
}

// ObserveCoverage records how well the boundaries cover the table.
func (m *Metrics) ObserveCoverage(c geo.Coverage) {
	m.BoundaryMissing.Set(float64(len(c.Missing)))
	m.BoundaryUnused.Set(float64(c.Unused))
}

// ObserveBuild records the build duration and identity.
func (m *Metrics) ObserveBuild(preset, buildID string, took time.Duration) {
	m.BuildDuration.Set(took.Seconds())
	m.BuildInfo.Reset()
	m.BuildInfo.WithLabelValues(preset, buildID).Set(1)
}

// Middleware counts requests by chi route pattern so that path parameters do
// not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

package dashboard

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/monitoring"
	"github.com/sells-group/covidmap/internal/selection"
)

// ServerOptions configures the HTTP surface.
type ServerOptions struct {
	AllowedOrigins []string
	Metrics        *monitoring.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// Router returns the dashboard routes. Every response is derived from the
// immutable build, so handlers share no mutable state.
func (d *Dashboard) Router(opts ServerOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "If-None-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	}))

	r.Get("/", d.cached("text/html; charset=utf-8", d.page))
	r.Get("/figure.json", d.cached("application/json", d.figure))
	r.Get("/layers.json", d.cached("application/json", d.layers))
	r.Get("/layers/{metric}", d.handleLayer)
	r.Get("/report.json", d.cached("application/json", d.report))
	r.Get("/rankings", d.cached("text/html; charset=utf-8", d.rankings))
	r.Get(BoundariesPath, d.cached("application/geo+json", d.res.Boundaries.Raw()))
	r.Get("/healthz", d.handleHealth)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	return r
}

func (d *Dashboard) etag() string {
	return `"` + d.res.BuildID + `"`
}

// cached serves a pre-rendered body with an ETag tied to the build.
func (d *Dashboard) cached(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := d.etag()
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", "no-cache")
		if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func etagMatches(header, tag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == tag {
			return true
		}
	}
	return false
}

type layerResponse struct {
	layerSummary
	Index int    `json:"index"`
	Mask  []bool `json:"trace_mask"`
}

// handleLayer returns one metric's ranking and the restyle mask that selects
// it.
func (d *Dashboard) handleLayer(w http.ResponseWriter, r *http.Request) {
	key, err := model.ParseMetricKey(chi.URLParam(r, "metric"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	idx, ok := d.res.Specs.Index(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "metric not on this dashboard: " + string(key)})
		return
	}
	mask, err := selection.TraceMask(idx, len(d.res.Specs))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	// The first n trace entries are the bar layers, one per metric.
	maps, bars, err := selection.Apply(d.res.Maps, d.res.Bars, mask[:len(d.res.Specs)])
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, layerResponse{
		layerSummary: summarize(maps[idx], bars[idx]),
		Index:        idx,
		Mask:         mask,
	})
}

func (d *Dashboard) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build_id": d.res.BuildID,
		"preset":   d.res.Preset.Name,
		"counties": d.res.Table.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("dashboard: write response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

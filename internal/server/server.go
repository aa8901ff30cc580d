// Package server exposes risk queries and the facility map layer over HTTP.
// Every request reloads its input files.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/risk"
	"github.com/sells-group/warn-cli/internal/table"
)

// Options configures a Server.
type Options struct {
	Risk          risk.Paths
	AllFacilities string
	Top           int
	Nearest       int
	GeoJSON       export.GeoJSONOptions
}

// Server serves the read-only HTTP API.
type Server struct {
	opts     Options
	registry *prometheus.Registry
	metrics  *Metrics
}

// New creates a Server with its own metrics registry.
func New(opts Options) *Server {
	reg := prometheus.NewRegistry()
	return &Server{opts: opts, registry: reg, metrics: NewMetrics(reg)}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))
	r.Use(s.metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Get("/risk", s.handleRisk)
	r.Get("/facilities.geojson", s.handleGeoJSON)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	q := risk.Query{
		Facility: strings.TrimSpace(r.URL.Query().Get("facility")),
		Title:    strings.TrimSpace(r.URL.Query().Get("title")),
		Top:      s.opts.Top,
		Nearest:  s.opts.Nearest,
	}
	if q.Facility == "" || q.Title == "" {
		writeError(w, http.StatusBadRequest, "facility and title are required")
		return
	}
	var err error
	if q.Top, err = intParam(r, "top", q.Top); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.Nearest, err = intParam(r, "nearest", q.Nearest); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if v := r.URL.Query().Get("radius_km"); v != "" {
		if q.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "radius_km must be a number")
			return
		}
	}

	data, err := risk.Load(s.opts.Risk, nil)
	if err != nil {
		s.loadFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, risk.Assess(q, data))
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	facilities, err := table.Read(s.opts.AllFacilities)
	if err != nil {
		s.loadFailed(w, err)
		return
	}
	impacts, err := export.LoadImpacts(s.opts.Risk.Impacts, nil)
	if err != nil {
		s.loadFailed(w, err)
		return
	}
	rows, err := geocodes.Load(s.opts.Risk.Geocodes)
	if err != nil {
		s.loadFailed(w, err)
		return
	}

	fc, stats, err := export.GeoJSON(facilities, impacts, geocodes.Index(rows), s.opts.GeoJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.Features.Set(float64(stats.Features))

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		zap.L().Warn("server: encode geojson", zap.Error(err))
	}
}

func (s *Server) loadFailed(w http.ResponseWriter, err error) {
	zap.L().Error("server: load data", zap.Error(err))
	var dle *model.DataLoadError
	if errors.As(err, &dle) {
		writeError(w, http.StatusServiceUnavailable, "data unavailable: "+dle.Path)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

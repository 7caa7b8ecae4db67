// Package httpapi serves the engine's scan and analytics operations as JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

var (
	errNotFound   = errors.New("not found")
	errBadRequest = errors.New("bad request")
)

// Engine is the part of engine.Engine the API exposes.
type Engine interface {
	ScanAll(ctx context.Context, packages []string) (models.ScanSession, error)
	Sessions(ctx context.Context) ([]models.ScanSession, error)
	CPUHistory(ctx context.Context, packageName string) ([]models.CPUUsageSample, error)
	NetworkHistory(ctx context.Context, packageName string) ([]models.NetworkActivitySample, error)
	RiskHeatmap(ctx context.Context) ([]models.RiskHeatmapItem, error)
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	CompareSessions(ctx context.Context, id1, id2 string) (models.ScanComparison, bool, error)
	Distribution(ctx context.Context) ([]models.RiskDistribution, error)
}

type Router struct {
	engine Engine
	logger *logger.Logger
}

// NewRouter builds the API. gatherer backs /metrics; allowedOrigins configures CORS.
func NewRouter(engine Engine, gatherer prometheus.Gatherer, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := &Router{engine: engine, logger: log.WithComponent("httpapi")}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.Route("/api/v1", func(rt chi.Router) {
		rt.Post("/scans", r.wrap(r.handleScan))
		rt.Get("/sessions", r.wrap(r.handleSessions))
		rt.Get("/cpu-history", r.wrap(r.handleCPUHistory))
		rt.Get("/network-history", r.wrap(r.handleNetworkHistory))
		rt.Get("/heatmap", r.wrap(r.handleHeatmap))
		rt.Get("/stats", r.wrap(r.handleStats))
		rt.Get("/distribution", r.wrap(r.handleDistribution))
		rt.Get("/compare", r.wrap(r.handleCompare))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, errNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, errBadRequest):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				r.logger.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /api/v1/scans
// Body: {"packages": ["com.example.app", ...]}
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Packages []string `json:"packages"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if len(body.Packages) == 0 {
		return fmt.Errorf("%w: packages is required", errBadRequest)
	}

	session, err := r.engine.ScanAll(req.Context(), body.Packages)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, session)
}

// GET /api/v1/sessions
func (r *Router) handleSessions(w http.ResponseWriter, req *http.Request) error {
	sessions, err := r.engine.Sessions(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sessions)
}

// GET /api/v1/cpu-history?package=
func (r *Router) handleCPUHistory(w http.ResponseWriter, req *http.Request) error {
	samples, err := r.engine.CPUHistory(req.Context(), req.URL.Query().Get("package"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, samples)
}

// GET /api/v1/network-history?package=
func (r *Router) handleNetworkHistory(w http.ResponseWriter, req *http.Request) error {
	samples, err := r.engine.NetworkHistory(req.Context(), req.URL.Query().Get("package"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, samples)
}

func (r *Router) handleHeatmap(w http.ResponseWriter, req *http.Request) error {
	items, err := r.engine.RiskHeatmap(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, items)
}

func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	stats, err := r.engine.DashboardStats(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, stats)
}

func (r *Router) handleDistribution(w http.ResponseWriter, req *http.Request) error {
	dist, err := r.engine.Distribution(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, dist)
}

// GET /api/v1/compare?from=<id>&to=<id>
func (r *Router) handleCompare(w http.ResponseWriter, req *http.Request) error {
	from := req.URL.Query().Get("from")
	to := req.URL.Query().Get("to")
	if from == "" || to == "" {
		return fmt.Errorf("%w: from and to are required", errBadRequest)
	}

	cmp, ok, err := r.engine.CompareSessions(req.Context(), from, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: session %s or %s", errNotFound, from, to)
	}
	return writeJSON(w, http.StatusOK, cmp)
}

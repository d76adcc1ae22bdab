package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hupe1980/automesh/engine"
	"github.com/hupe1980/automesh/logging"
)

// Options configures the HTTP handler.
type Options struct {
	// Logger is used for request-level diagnostics.
	Logger logging.Logger

	// RequestTimeout bounds each request. Defaults to 30 seconds.
	RequestTimeout time.Duration
}

// Handler serves the admin API for a single engine instance.
type Handler struct {
	engine *engine.Engine
	router *chi.Mux
	logger logging.Logger
}

// NewHandler returns an http.Handler exposing the engine's admin API.
func NewHandler(e *engine.Engine, optFns ...func(o *Options)) *Handler {
	opts := Options{
		Logger:         logging.NoOpLogger{},
		RequestTimeout: 30 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	h := &Handler{
		engine: e,
		logger: opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.Get("/api/v1/health", h.handleHealth)

	r.Post("/api/v1/events", h.handleEmitEvent)

	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", h.handleListRules)
		r.Post("/", h.handleCreateRule)

		r.Route("/{ruleID}", func(r chi.Router) {
			r.Get("/", h.handleGetRule)
			r.Put("/", h.handleUpdateRule)
			r.Delete("/", h.handleDeleteRule)
			r.Post("/toggle", h.handleToggleRule)
		})
	})

	r.Get("/api/v1/stats", h.handleStats)
	r.Get("/api/v1/log", h.handleLog)

	r.Get("/api/v1/settings", h.handleGetSettings)
	r.Put("/api/v1/settings", h.handleUpdateSettings)

	h.router = r

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MetricsHandler exposes the Prometheus exposition of the pipeline metrics
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler creates a new metrics handler. A nil exposition
// handler means metrics are disabled and /metrics answers 404.
func NewMetricsHandler(exposition http.Handler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		http.NotFound(w, r)
		return
	}
	h.exposition.ServeHTTP(w, r)
}

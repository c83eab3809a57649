// Package api implements the Trialscope REST API. Every read endpoint serves
// a section of the cached dashboard model; write endpoints publish snapshots
// and control the refresh cycle.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/trialscope/trialscope/internal/refresh"
	"github.com/trialscope/trialscope/pkg/logger"
)

// Publisher writes an uploaded snapshot document to the data source.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// Options configures a Handler. Only Cache is required.
type Options struct {
	Cache     *refresh.Cache
	Publisher Publisher
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// APIKey protects the write endpoints when non-empty.
	APIKey string
	Logger *zap.Logger
}

// Handler is the top-level API handler.
type Handler struct {
	cache     *refresh.Cache
	publisher Publisher
	metrics   http.Handler
	apiKey    string
	log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	return &Handler{
		cache:     opts.Cache,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		apiKey:    opts.APIKey,
		log:       logger.OrNop(opts.Logger),
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := APIKeyAuth(h.apiKey)

	// Write endpoints (auth-protected)
	mux.Handle("POST /api/v1/refresh", protect(http.HandlerFunc(h.handleRefresh)))
	mux.Handle("POST /api/v1/invalidate", protect(http.HandlerFunc(h.handleInvalidate)))
	mux.Handle("POST /api/v1/snapshots", protect(http.HandlerFunc(h.handleUploadSnapshot)))

	// Read endpoints
	mux.HandleFunc("GET /api/v1/dashboard", h.handleDashboard)
	mux.HandleFunc("GET /api/v1/dashboard/{section}", h.handleSection)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

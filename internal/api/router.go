package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/searchforge/suggestions/internal/contract"
	"github.com/searchforge/suggestions/internal/controller"
	"github.com/searchforge/suggestions/internal/health"
	"github.com/searchforge/suggestions/policy"
)

// Router wires the HTTP endpoints for the suggestion service.
type Router struct {
	controller *controller.Controller
	budget     time.Duration
	logger     *slog.Logger
}

// NewRouter constructs the HTTP router. budget bounds each suggestion
// request; zero leaves requests unbounded.
func NewRouter(ctrl *controller.Controller, budget time.Duration, logger *slog.Logger) (*chi.Mux, error) {
	if ctrl == nil {
		return nil, errors.New("controller is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		controller: ctrl,
		budget:     budget,
		logger:     logger,
	}

	mux := chi.NewRouter()
	mux.Get("/healthz", health.Healthz)
	mux.Get("/readyz", health.Readyz(ctrl))
	mux.Get("/v1/suggestions", r.handleSuggestions)

	return mux, nil
}

func (r *Router) handleSuggestions(w http.ResponseWriter, req *http.Request) {
	traceID := req.Header.Get(contract.TraceIDHeader)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	w.Header().Set(contract.TraceIDHeader, traceID)

	ctx, cancel, budget := policy.Budget(req.Context(), r.budget)
	defer cancel()
	ctx = contract.WithTraceID(ctx, traceID)

	resp := r.controller.SearchSuggestions(ctx, req.URL.Query().Get("q"))
	if budget.Hit() {
		r.logger.Warn("suggestion budget exhausted", "trace_id", traceID, "budget", r.budget)
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

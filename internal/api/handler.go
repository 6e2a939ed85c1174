// Package api exposes the reasoning service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/nidhogg/ponder/internal/chain"
	"github.com/nidhogg/ponder/internal/config"
	"github.com/nidhogg/ponder/internal/provider"
	"github.com/nidhogg/ponder/internal/reasoner"
	"github.com/nidhogg/ponder/internal/store"
	"github.com/nidhogg/ponder/internal/strategy"
	"go.uber.org/zap"
)

// Version reported by the health endpoint.
const Version = "0.3.0"

// Handler holds dependencies for HTTP handlers. Store and cache may be nil;
// results are then simply not persisted.
type Handler struct {
	providers    *provider.Registry
	strategies   *strategy.Registry
	providerCfgs map[string]config.ProviderConfig
	store        *store.Store
	cache        *store.Cache
	defaults     config.ReasoningConfig
	logger       *zap.Logger
}

// NewHandler creates a new API handler. providerCfgs maps provider type
// names to their configured endpoint/credentials.
func NewHandler(
	providers *provider.Registry,
	strategies *strategy.Registry,
	providerCfgs map[string]config.ProviderConfig,
	st *store.Store,
	cache *store.Cache,
	defaults config.ReasoningConfig,
	logger *zap.Logger,
) *Handler {
	if providerCfgs == nil {
		providerCfgs = make(map[string]config.ProviderConfig)
	}
	return &Handler{
		providers:    providers,
		strategies:   strategies,
		providerCfgs: providerCfgs,
		store:        st,
		cache:        cache,
		defaults:     defaults,
		logger:       logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Get("/providers", h.listProviders)
		r.Get("/strategies", h.listStrategies)

		r.Post("/reason", h.reason)
		r.Post("/reason/async", h.reasonAsync)
		r.Post("/reason/stream", h.reasonStream)
		r.Get("/reason/{id}", h.getResult)
		r.Delete("/reason/{id}", h.deleteResult)

		r.Get("/results", h.listResults)
		r.Get("/stats", h.getStats)
	})

	return r
}

// ReasonRequest is the request body for the reasoning endpoints.
type ReasonRequest struct {
	Query       string  `json:"query"`
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Strategy    string  `json:"strategy,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	NumSamples  int     `json:"num_samples,omitempty"`
}

// ReasonResponse is the reasoning result returned to callers.
type ReasonResponse struct {
	ID          string                 `json:"id"`
	Query       string                 `json:"query"`
	Steps       []chain.ReasoningStep  `json:"steps"`
	Answer      string                 `json:"answer"`
	Confidence  float64                `json:"confidence"`
	Provider    string                 `json:"provider"`
	Model       string                 `json:"model"`
	Strategy    string                 `json:"strategy"`
	TotalTokens int                    `json:"total_tokens"`
	CreatedAt   time.Time              `json:"created_at"`
	Metadata    map[string]interface{} `json:"metadata"`
	Status      string                 `json:"status"`
}

func (h *Handler) newReasoner(req *ReasonRequest) (*reasoner.Reasoner, error) {
	cfg := reasoner.Config{
		Provider:    req.Provider,
		Model:       req.Model,
		Strategy:    req.Strategy,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		NumSamples:  req.NumSamples,
	}
	if cfg.Provider == "" {
		cfg.Provider = h.defaults.DefaultProvider
	}
	if cfg.Strategy == "" {
		cfg.Strategy = h.defaults.DefaultStrategy
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = h.defaults.Temperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = h.defaults.MaxTokens
	}
	if cfg.NumSamples == 0 {
		cfg.NumSamples = h.defaults.NumSamples
	}
	if pc, ok := h.providerCfgs[cfg.Provider]; ok {
		if cfg.Model == "" {
			cfg.Model = pc.Model
		}
		cfg.Endpoint = pc.Endpoint
		cfg.APIKey = pc.APIKey
	}
	return reasoner.New(cfg, h.providers, h.strategies, h.logger)
}

func (h *Handler) decodeReasonRequest(w http.ResponseWriter, r *http.Request) (*ReasonRequest, bool) {
	var req ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return nil, false
	}
	return &req, true
}

// isConfigError distinguishes bad-input errors (caller fixes the request)
// from transient generation failures.
func isConfigError(err error) bool {
	return errors.Is(err, provider.ErrUnknownProvider) ||
		errors.Is(err, provider.ErrMissingAPIKey) ||
		errors.Is(err, strategy.ErrUnknownStrategy)
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": h.providers.Names()})
}

func (h *Handler) listStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"strategies": h.strategies.Names()})
}

func (h *Handler) reason(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReasonRequest(w, r)
	if !ok {
		return
	}

	rsn, err := h.newReasoner(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := rsn.Reason(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("reasoning failed", zap.String("query", req.Query), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": fmt.Sprintf("reasoning failed: %v", err)})
		return
	}

	id := uuid.New().String()
	h.persistChain(r.Context(), id, result)

	writeJSON(w, http.StatusOK, ReasonResponse{
		ID:          id,
		Query:       result.Query,
		Steps:       result.Steps,
		Answer:      result.Answer,
		Confidence:  result.Confidence,
		Provider:    result.Provider,
		Model:       result.Model,
		Strategy:    result.Strategy,
		TotalTokens: result.TotalTokens,
		CreatedAt:   result.CreatedAt,
		Metadata:    result.Metadata,
		Status:      store.StatusCompleted,
	})
}

func (h *Handler) reasonAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReasonRequest(w, r)
	if !ok {
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "async reasoning requires result storage"})
		return
	}

	// Validate provider/strategy names before accepting the task.
	rsn, err := h.newReasoner(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	taskID := uuid.New().String()
	if err := h.store.SavePending(r.Context(), taskID, req.Query); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := rsn.Reason(ctx, req.Query)
		if err != nil {
			h.logger.Error("async reasoning failed", zap.String("task", taskID), zap.Error(err))
			if serr := h.store.SaveFailed(ctx, taskID, req.Query, err.Error()); serr != nil {
				h.logger.Error("failed to record task failure", zap.String("task", taskID), zap.Error(serr))
			}
			return
		}
		h.persistChain(ctx, taskID, result)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":      taskID,
		"status":  store.StatusPending,
		"message": "Reasoning task submitted. Use GET /api/reason/{id} to retrieve results.",
	})
}

func (h *Handler) reasonStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReasonRequest(w, r)
	if !ok {
		return
	}

	rsn, err := h.newReasoner(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	chunks, err := rsn.ReasonStream(r.Context(), req.Query)
	if err != nil {
		status := http.StatusBadGateway
		if isConfigError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for chunk := range chunks {
		if chunk.Done {
			break
		}
		fmt.Fprintf(w, "data: %s\n\n", chunk.Content)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.cache != nil {
		if cached := h.cache.Get(r.Context(), id); cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}

	result, err := h.store.GetResult(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}
	if h.cache != nil {
		h.cache.Put(r.Context(), result)
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) deleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}

	deleted, err := h.store.DeleteResult(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Result deleted", "id": id})
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, []*store.Result{})
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	status := r.URL.Query().Get("status")

	var (
		results []*store.Result
		err     error
	)
	if term := r.URL.Query().Get("q"); term != "" {
		results, err = h.store.SearchResults(r.Context(), term, limit)
	} else {
		results, err = h.store.ListResults(r.Context(), limit, status)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if results == nil {
		results = []*store.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusOK, &store.Stats{})
		return
	}
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) persistChain(ctx context.Context, id string, c *chain.ReasoningChain) {
	if h.store == nil {
		return
	}
	if err := h.store.SaveChain(ctx, id, c); err != nil {
		h.logger.Warn("failed to persist result", zap.String("id", id), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package handlers

import (
	"context"
	"net/http"
	"time"
)

// StoreCheck is one health-checkable backend.
type StoreCheck struct {
	Name  string
	Type  string // "references" or "storage"
	Check func(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the process running?
//   - Readiness probe: Are both stores configured?
//   - Store health: Live health status of each store
type HealthHandler struct {
	stores  []StoreCheck
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. With no stores readiness
// and store health report unhealthy.
func NewHealthHandler(stores ...StoreCheck) *HealthHandler {
	return &HealthHandler{stores: stores, timeout: 5 * time.Second}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "imgsync",
	}))
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.stores) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no stores configured"))
		return
	}

	counts := map[string]int{}
	for _, s := range h.stores {
		counts[s.Type]++
	}
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"stores":           len(h.stores),
		"reference_stores": counts["references"],
		"object_stores":    counts["storage"],
	}))
}

// StoreHealth is the health status of a single store.
type StoreHealth struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// StoresResponse is the detailed store health response.
type StoresResponse struct {
	Stores []StoreHealth `json:"stores"`
}

// Stores handles GET /health/stores. It returns 503 when any store is unhealthy.
func (h *HealthHandler) Stores(w http.ResponseWriter, r *http.Request) {
	if len(h.stores) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no stores configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	response := StoresResponse{Stores: make([]StoreHealth, 0, len(h.stores))}
	allHealthy := true

	for _, s := range h.stores {
		start := time.Now()
		err := s.Check(ctx)

		health := StoreHealth{
			Name:    s.Name,
			Type:    s.Type,
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
		if err != nil {
			health.Status = "unhealthy"
			health.Error = err.Error()
			allHealthy = false
		}
		response.Stores = append(response.Stores, health)
	}

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(response))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(response))
	}
}

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexmon/internal/cache"
)

// HealthHandler reports process liveness plus a per-pair freshness summary of
// the price cache.
type HealthHandler struct {
	cache          *cache.PriceCache
	staleThreshold time.Duration
	logger         *slog.Logger
}

// NewHealthHandler creates a HealthHandler over the given cache.
func NewHealthHandler(c *cache.PriceCache, staleThreshold time.Duration, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{cache: c, staleThreshold: staleThreshold, logger: logger}
}

// HealthCheck responds with overall status and cache freshness.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	entries, pairs := h.cache.Health(now, h.staleThreshold)

	status := "ok"
	for _, p := range pairs {
		if p.Stale > 0 {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": now.Format(time.RFC3339),
		"entries":   entries,
		"pairs":     pairs,
	})
}

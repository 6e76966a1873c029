package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexmon/internal/cache"
	"github.com/alanyoungcy/dexmon/internal/domain"
)

// PriceHandler serves the cached price view.
type PriceHandler struct {
	cache  *cache.PriceCache
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler over the given cache.
func NewPriceHandler(c *cache.PriceCache, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{cache: c, logger: logger}
}

// ListPairs returns the tracked pair names.
// GET /api/prices
func (h *PriceHandler) ListPairs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pairs": h.cache.Pairs(),
	})
}

// GetPair returns the per-venue records for one pair.
// GET /api/prices/{pair}
func (h *PriceHandler) GetPair(w http.ResponseWriter, r *http.Request) {
	pair := r.PathValue("pair")
	snap := h.cache.Snapshot(pair)
	if len(snap) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s: %s", domain.ErrUnknownPair, pair))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pair":   pair,
		"venues": snap,
	})
}

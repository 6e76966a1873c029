package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

// RecentSource provides the retained opportunities, newest first.
type RecentSource interface {
	Recent() []domain.Opportunity
}

// OpportunityHandler serves recently detected opportunities.
type OpportunityHandler struct {
	source RecentSource
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler over the given source.
func NewOpportunityHandler(source RecentSource, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{source: source, logger: logger}
}

// ListRecent returns up to ?limit= recent opportunities (default 50, max 500).
// GET /api/opportunities/recent
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 500)
	recent := h.source.Recent()
	if len(recent) > limit {
		recent = recent[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(recent),
		"opportunities": recent,
	})
}

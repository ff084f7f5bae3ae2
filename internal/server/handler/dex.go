package handler

import (
	"log/slog"
	"net/http"

	"github.com/jmfarina/betscan/internal/domain"
)

// DexHandler serves detected pool price moves. The store may be nil when
// the process runs without the DEX monitor; endpoints then return 501.
type DexHandler struct {
	store  domain.DexOpportunityStore
	logger *slog.Logger
}

// NewDexHandler creates a DexHandler.
func NewDexHandler(store domain.DexOpportunityStore, logger *slog.Logger) *DexHandler {
	return &DexHandler{store: store, logger: logger}
}

// ListOpportunities returns recent pool price moves, optionally only those
// viable after gas.
// GET /api/dex/opportunities?limit=50&viable=true
func (h *DexHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "dex monitoring not configured")
		return
	}
	limit := queryLimit(r, 50, 200)

	var (
		list []domain.DexOpportunity
		err  error
	)
	if r.URL.Query().Get("viable") == "true" {
		list, err = h.store.ListViable(r.Context(), domain.ListOpts{Limit: limit})
	} else {
		list, err = h.store.ListRecent(r.Context(), limit)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list dex opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}
	if list == nil {
		list = []domain.DexOpportunity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": list})
}

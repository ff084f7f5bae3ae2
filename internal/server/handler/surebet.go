package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// SurebetHandler serves detected surebets and the odds cache.
type SurebetHandler struct {
	store  domain.SurebetStore
	cache  domain.OddsCache
	logger *slog.Logger
}

// NewSurebetHandler creates a SurebetHandler.
func NewSurebetHandler(store domain.SurebetStore, cache domain.OddsCache, logger *slog.Logger) *SurebetHandler {
	return &SurebetHandler{store: store, cache: cache, logger: logger}
}

// listSurebetsResponse wraps the surebet list response.
type listSurebetsResponse struct {
	Surebets []domain.Surebet `json:"surebets"`
}

// ListRecent returns the most recently detected surebets.
// GET /api/surebets?limit=50
func (h *SurebetHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 200)

	list, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list surebets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list surebets")
		return
	}
	if list == nil {
		list = []domain.Surebet{}
	}
	writeJSON(w, http.StatusOK, listSurebetsResponse{Surebets: list})
}

// GetByID returns a single surebet with its legs.
// GET /api/surebets/{id}
func (h *SurebetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing surebet id")
		return
	}

	sb, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "surebet not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get surebet failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get surebet")
		return
	}
	writeJSON(w, http.StatusOK, sb)
}

// Profit returns the sum of guaranteed profit detected since a date.
// GET /api/surebets/profit?since=2026-01-01
func (h *SurebetHandler) Profit(w http.ResponseWriter, r *http.Request) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		since = t
	}

	total, err := h.store.SumGuaranteedProfit(r.Context(), since)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: surebet profit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute profit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since":            since.Format(time.RFC3339),
		"total_profit":     total,
		"currency_neutral": true,
	})
}

// BestOdds returns the cached best quotes per outcome for one market.
// GET /api/odds/{event_id}?market=1X2
func (h *SurebetHandler) BestOdds(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("event_id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}
	market := r.URL.Query().Get("market")
	if market == "" {
		market = "1X2"
	}

	best, err := h.cache.GetBest(r.Context(), eventID, market)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no cached odds for market")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: best odds failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to read odds cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": eventID,
		"market":   market,
		"best":     best,
	})
}

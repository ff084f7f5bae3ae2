package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

type fakeSurebetStore struct {
	rows []domain.Surebet
}

func (f *fakeSurebetStore) Insert(ctx context.Context, sb domain.Surebet) error {
	f.rows = append(f.rows, sb)
	return nil
}

func (f *fakeSurebetStore) GetByID(ctx context.Context, id string) (domain.Surebet, error) {
	for _, sb := range f.rows {
		if sb.ID == id {
			return sb, nil
		}
	}
	return domain.Surebet{}, domain.ErrNotFound
}

func (f *fakeSurebetStore) ListRecent(ctx context.Context, limit int) ([]domain.Surebet, error) {
	if limit > 0 && len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeSurebetStore) SumGuaranteedProfit(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	for _, sb := range f.rows {
		if !sb.DetectedAt.Before(since) {
			total += sb.GuaranteedProfit
		}
	}
	return total, nil
}

type fakeOddsCache struct {
	best map[string][]domain.Quote
}

func (f *fakeOddsCache) SetBest(ctx context.Context, eventID, market string, best []domain.Quote) error {
	return nil
}

func (f *fakeOddsCache) GetBest(ctx context.Context, eventID, market string) ([]domain.Quote, error) {
	best, ok := f.best[eventID+":"+market]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(store *fakeSurebetStore, cache *fakeOddsCache) *http.ServeMux {
	h := NewSurebetHandler(store, cache, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/surebets", h.ListRecent)
	mux.HandleFunc("GET /api/surebets/profit", h.Profit)
	mux.HandleFunc("GET /api/surebets/{id}", h.GetByID)
	mux.HandleFunc("GET /api/odds/{event_id}", h.BestOdds)
	return mux
}

func TestListRecentSurebets(t *testing.T) {
	store := &fakeSurebetStore{rows: []domain.Surebet{
		{ID: "sb-1", MatchName: "Boca Juniors vs River Plate", MarginPercent: 1.92},
	}}
	mux := newTestMux(store, &fakeOddsCache{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surebets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Surebets []domain.Surebet `json:"surebets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Surebets) != 1 || resp.Surebets[0].ID != "sb-1" {
		t.Fatalf("surebets = %+v", resp.Surebets)
	}
}

func TestGetSurebetByID(t *testing.T) {
	store := &fakeSurebetStore{rows: []domain.Surebet{{ID: "sb-1"}}}
	mux := newTestMux(store, &fakeOddsCache{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surebets/sb-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surebets/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id status = %d, want 404", rec.Code)
	}
}

func TestSurebetProfit(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeSurebetStore{rows: []domain.Surebet{
		{ID: "a", GuaranteedProfit: 100, DetectedAt: now},
		{ID: "b", GuaranteedProfit: 50, DetectedAt: now.AddDate(0, 0, -30)},
	}}
	mux := newTestMux(store, &fakeOddsCache{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surebets/profit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Default window is the last 24h; only the fresh row counts.
	if got := resp["total_profit"].(float64); got != 100 {
		t.Fatalf("total_profit = %v, want 100", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/surebets/profit?since=not-a-date", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad since status = %d, want 400", rec.Code)
	}
}

func TestBestOdds(t *testing.T) {
	cache := &fakeOddsCache{best: map[string][]domain.Quote{
		"ev-1:1X2": {{Bookmaker: "betwarrior", Outcome: "Home", Odds: 2.50}},
	}}
	mux := newTestMux(&fakeSurebetStore{}, cache)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/odds/ev-1?market=1X2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/odds/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing market status = %d, want 404", rec.Code)
	}
}

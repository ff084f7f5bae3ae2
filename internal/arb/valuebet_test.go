package arb

import (
	"math"
	"testing"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

func TestValueBets(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	book := domain.MarketBook{
		EventID: "ev1",
		Market:  "1X2",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Home", Quotes: []domain.Quote{
				{Bookmaker: "betwarrior", Outcome: "Home", Odds: 2.0},
				{Bookmaker: "codere", Outcome: "Home", Odds: 2.2},
				{Bookmaker: "bplay", Outcome: "Home", Odds: 2.6},
			}},
			// Single quote: no consensus to deviate from.
			{Label: "Away", Quotes: []domain.Quote{
				{Bookmaker: "betwarrior", Outcome: "Away", Odds: 3.5},
			}},
		},
	}

	bets := ValueBets(book, 5.0, now)
	if len(bets) != 1 {
		t.Fatalf("got %d value bets, want 1: %+v", len(bets), bets)
	}
	vb := bets[0]
	if vb.Bookmaker != "bplay" || vb.Outcome != "Home" {
		t.Fatalf("flagged %s on %s, want bplay on Home", vb.Bookmaker, vb.Outcome)
	}

	// fair prob = (1/2.0 + 1/2.2 + 1/2.6) / 3
	fairProb := (1/2.0 + 1/2.2 + 1/2.6) / 3
	wantFair := 1 / fairProb
	if math.Abs(vb.FairOdds-wantFair) > 1e-9 {
		t.Errorf("fair odds = %v, want %v", vb.FairOdds, wantFair)
	}
	wantEdge := (2.6/wantFair - 1) * 100
	if math.Abs(vb.ValuePercent-wantEdge) > 1e-9 {
		t.Errorf("value = %v, want %v", vb.ValuePercent, wantEdge)
	}
}

func TestValueBetsNoEdge(t *testing.T) {
	book := domain.MarketBook{
		EventID: "ev2",
		Market:  "1X2",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Home", Quotes: []domain.Quote{
				{Bookmaker: "a", Outcome: "Home", Odds: 2.05},
				{Bookmaker: "b", Outcome: "Home", Odds: 2.0},
			}},
		},
	}
	if bets := ValueBets(book, 5.0, time.Now()); len(bets) != 0 {
		t.Fatalf("got %d value bets, want none", len(bets))
	}
}

package arb

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

func approxEq(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func book1X2(home, draw, away float64) domain.MarketBook {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.MarketBook{
		EventID: "boca-river-2025-03-01",
		Market:  "1X2",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Home", Quotes: []domain.Quote{{Bookmaker: "betwarrior", Outcome: "Home", Odds: home, Timestamp: ts}}},
			{Label: "Draw", Quotes: []domain.Quote{{Bookmaker: "codere", Outcome: "Draw", Odds: draw, Timestamp: ts}}},
			{Label: "Away", Quotes: []domain.Quote{{Bookmaker: "bplay", Outcome: "Away", Odds: away, Timestamp: ts}}},
		},
	}
}

func TestEvaluateArbitrage(t *testing.T) {
	ev, err := Evaluate(book1X2(2.50, 3.60, 3.30), 10000)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !ev.IsArbitrage {
		t.Fatal("expected arbitrage")
	}
	// 1/2.50 + 1/3.60 + 1/3.30 = 0.980808...
	if !approxEq(ev.InverseSum, 0.980808, 0.0001) {
		t.Errorf("inverse sum = %v, want ~0.98081", ev.InverseSum)
	}
	if !approxEq(ev.MarginPercent, 1.9192, 0.001) {
		t.Errorf("margin = %v, want ~1.92", ev.MarginPercent)
	}

	wantStakes := map[string]float64{
		"Home": 4078.27,
		"Draw": 2832.13,
		"Away": 3089.60,
	}
	if len(ev.Stakes) != 3 {
		t.Fatalf("got %d allocations, want 3", len(ev.Stakes))
	}
	for _, a := range ev.Stakes {
		want, ok := wantStakes[a.Outcome]
		if !ok {
			t.Fatalf("unexpected outcome %q", a.Outcome)
		}
		if !approxEq(a.Stake, want, 0.01) {
			t.Errorf("stake[%s] = %v, want ~%v", a.Outcome, a.Stake, want)
		}
	}

	if !approxEq(ev.GuaranteedReturn, 10195.67, 0.01) {
		t.Errorf("guaranteed return = %v, want ~10195.67", ev.GuaranteedReturn)
	}
	if !approxEq(ev.GuaranteedProfit, 195.67, 0.01) {
		t.Errorf("guaranteed profit = %v, want ~195.67", ev.GuaranteedProfit)
	}
	if !approxEq(ev.ROIPercent, 1.9567, 0.001) {
		t.Errorf("roi = %v, want ~1.96", ev.ROIPercent)
	}
}

func TestEvaluateNoArbitrage(t *testing.T) {
	ev, err := Evaluate(book1X2(1.80, 3.40, 4.20), 10000)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.IsArbitrage {
		t.Fatal("expected no arbitrage")
	}
	if ev.MarginPercent >= 0 {
		t.Errorf("margin = %v, want negative", ev.MarginPercent)
	}
	if !approxEq(ev.InverseSum, 1.08777, 0.0001) {
		t.Errorf("inverse sum = %v, want ~1.0878", ev.InverseSum)
	}
	if len(ev.Stakes) != 0 {
		t.Errorf("got %d allocations, want none", len(ev.Stakes))
	}
	if ev.GuaranteedProfit != 0 || ev.ROIPercent != 0 {
		t.Errorf("profit/roi = %v/%v, want zero for non-arbitrage",
			ev.GuaranteedProfit, ev.ROIPercent)
	}
}

func TestEvaluateZeroEdgeBoundary(t *testing.T) {
	book := domain.MarketBook{
		EventID: "ev1",
		Market:  "over_under_2.5",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Over", Quotes: []domain.Quote{{Bookmaker: "a", Outcome: "Over", Odds: 2.0}}},
			{Label: "Under", Quotes: []domain.Quote{{Bookmaker: "b", Outcome: "Under", Odds: 2.0}}},
		},
	}
	ev, err := Evaluate(book, 1000)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ev.IsArbitrage {
		t.Error("zero-edge book must not be reported as arbitrage")
	}
	if ev.MarginPercent != 0 {
		t.Errorf("margin = %v, want 0", ev.MarginPercent)
	}
}

func TestEvaluateTieBreakEarliestBookmaker(t *testing.T) {
	book := domain.MarketBook{
		EventID: "ev2",
		Market:  "1X2",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Home", Quotes: []domain.Quote{
				{Bookmaker: "betwarrior", Outcome: "Home", Odds: 2.6},
				{Bookmaker: "codere", Outcome: "Home", Odds: 2.6},
			}},
			{Label: "Away", Quotes: []domain.Quote{
				{Bookmaker: "bplay", Outcome: "Away", Odds: 2.0},
			}},
		},
	}
	ev, err := Evaluate(book, 500)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for _, a := range ev.Stakes {
		if a.Outcome == "Home" && a.Bookmaker != "betwarrior" {
			t.Errorf("tie on Home resolved to %q, want earliest-listed betwarrior", a.Bookmaker)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	book := book1X2(2.50, 3.60, 3.30)
	first, err := Evaluate(book, 10000)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Evaluate(book, 10000)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if again.InverseSum != first.InverseSum || again.GuaranteedReturn != first.GuaranteedReturn {
			t.Fatal("repeated evaluation diverged")
		}
		for j := range again.Stakes {
			if again.Stakes[j] != first.Stakes[j] {
				t.Fatalf("allocation %d diverged", j)
			}
		}
	}
}

func TestEvaluateInvariants(t *testing.T) {
	cases := []struct {
		name  string
		odds  [3]float64
		stake float64
	}{
		{"tight edge", [3]float64{2.50, 3.60, 3.30}, 10000},
		{"wide edge", [3]float64{3.10, 3.90, 3.80}, 250},
		{"small stake", [3]float64{2.55, 3.70, 3.40}, 1},
		{"large stake", [3]float64{2.52, 3.65, 3.35}, 1e9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Evaluate(book1X2(tc.odds[0], tc.odds[1], tc.odds[2]), tc.stake)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if !ev.IsArbitrage {
				t.Fatalf("expected arbitrage for odds %v", tc.odds)
			}
			if !ConservesStake(ev) {
				var sum float64
				for _, a := range ev.Stakes {
					sum += a.Stake
				}
				t.Errorf("stakes sum %v, want %v within 1e-6 relative", sum, tc.stake)
			}
			// Every leg pays the same guaranteed return.
			for _, a := range ev.Stakes {
				if math.Abs(a.Payout-ev.GuaranteedReturn) > 1e-6*ev.GuaranteedReturn {
					t.Errorf("payout[%s] = %v, want %v", a.Outcome, a.Payout, ev.GuaranteedReturn)
				}
			}
			if (ev.MarginPercent > 0) != ev.IsArbitrage {
				t.Errorf("margin %v inconsistent with IsArbitrage=%v", ev.MarginPercent, ev.IsArbitrage)
			}
		})
	}
}

func TestEvaluateValidation(t *testing.T) {
	valid := book1X2(2.50, 3.60, 3.30)

	oneOutcome := domain.MarketBook{
		EventID:  "ev3",
		Market:   "1X2",
		Outcomes: valid.Outcomes[:1],
	}
	noQuotes := domain.MarketBook{
		EventID: "ev4",
		Market:  "1X2",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Home", Quotes: []domain.Quote{{Bookmaker: "a", Outcome: "Home", Odds: 2.1}}},
			{Label: "Away"},
		},
	}
	dupOutcome := domain.MarketBook{
		EventID: "ev5",
		Market:  "1X2",
		Outcomes: []domain.OutcomeQuotes{
			{Label: "Home", Quotes: []domain.Quote{{Bookmaker: "a", Outcome: "Home", Odds: 2.1}}},
			{Label: "Home", Quotes: []domain.Quote{{Bookmaker: "b", Outcome: "Home", Odds: 2.2}}},
		},
	}

	cases := []struct {
		name  string
		book  domain.MarketBook
		stake float64
		want  error
	}{
		{"single outcome", oneOutcome, 100, domain.ErrInvalidMarket},
		{"outcome without quotes", noQuotes, 100, domain.ErrInvalidMarket},
		{"duplicate outcome label", dupOutcome, 100, domain.ErrInvalidMarket},
		{"odds exactly one", book1X2(1.0, 3.60, 3.30), 100, domain.ErrInvalidOdds},
		{"zero odds", book1X2(2.50, 0, 3.30), 100, domain.ErrInvalidOdds},
		{"negative odds", book1X2(2.50, 3.60, -2), 100, domain.ErrInvalidOdds},
		{"nan odds", book1X2(math.NaN(), 3.60, 3.30), 100, domain.ErrInvalidOdds},
		{"zero stake", valid, 0, domain.ErrInvalidStake},
		{"negative stake", valid, -50, domain.ErrInvalidStake},
		{"nan stake", valid, math.NaN(), domain.ErrInvalidStake},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.book, tc.stake)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

// Package arb implements the arbitrage evaluation engine: given one market
// book and a total stake, it decides whether the best available odds form a
// surebet and, if so, how to split the stake across outcomes so the payout
// is the same whichever outcome wins.
//
// All functions are pure and safe for concurrent use.
package arb

import (
	"fmt"
	"math"

	"github.com/jmfarina/betscan/internal/domain"
)

// stakeEpsilon bounds the relative rounding drift allowed between the sum
// of allocated stakes and the requested total.
const stakeEpsilon = 1e-6

// Evaluate runs the full arbitrage evaluation over one market book.
//
// The margin and inverse sum are computed for every valid book, arbitrage
// or not. The stake plan (Stakes, GuaranteedReturn, GuaranteedProfit,
// ROIPercent) is populated only when the inverse sum is strictly below 1.
func Evaluate(book domain.MarketBook, totalStake float64) (domain.Evaluation, error) {
	if err := validate(book, totalStake); err != nil {
		return domain.Evaluation{}, err
	}

	best := bestQuotes(book)

	var inv float64
	for _, q := range best {
		inv += 1 / q.Odds
	}

	ev := domain.Evaluation{
		EventID:       book.EventID,
		Market:        book.Market,
		InverseSum:    inv,
		MarginPercent: (1 - inv) * 100,
		IsArbitrage:   inv < 1,
		TotalStake:    totalStake,
	}
	if !ev.IsArbitrage {
		return ev, nil
	}

	ev.Stakes = make([]domain.Allocation, 0, len(best))
	for _, q := range best {
		stake := totalStake * (1 / q.Odds) / inv
		ev.Stakes = append(ev.Stakes, domain.Allocation{
			Outcome:   q.Outcome,
			Bookmaker: q.Bookmaker,
			Odds:      q.Odds,
			Stake:     stake,
			Payout:    stake * q.Odds,
		})
	}

	ev.GuaranteedReturn = totalStake / inv
	ev.GuaranteedProfit = ev.GuaranteedReturn - totalStake
	ev.ROIPercent = ev.GuaranteedProfit / totalStake * 100

	return ev, nil
}

// bestQuotes picks the highest-odds quote for each outcome, preserving the
// book's outcome order. Ties go to the earliest-listed bookmaker.
func bestQuotes(book domain.MarketBook) []domain.Quote {
	best := make([]domain.Quote, 0, len(book.Outcomes))
	for _, oc := range book.Outcomes {
		q, _ := oc.Best()
		if q.Outcome == "" {
			q.Outcome = oc.Label
		}
		best = append(best, q)
	}
	return best
}

func validate(book domain.MarketBook, totalStake float64) error {
	if len(book.Outcomes) < 2 {
		return fmt.Errorf("arb: market %q needs at least two outcomes, got %d: %w",
			book.Market, len(book.Outcomes), domain.ErrInvalidMarket)
	}
	seen := make(map[string]bool, len(book.Outcomes))
	for _, oc := range book.Outcomes {
		if oc.Label == "" {
			return fmt.Errorf("arb: market %q has an unlabelled outcome: %w",
				book.Market, domain.ErrInvalidMarket)
		}
		if seen[oc.Label] {
			return fmt.Errorf("arb: market %q lists outcome %q twice: %w",
				book.Market, oc.Label, domain.ErrInvalidMarket)
		}
		seen[oc.Label] = true
		if len(oc.Quotes) == 0 {
			return fmt.Errorf("arb: outcome %q has no quotes: %w",
				oc.Label, domain.ErrInvalidMarket)
		}
		for _, q := range oc.Quotes {
			if math.IsNaN(q.Odds) || math.IsInf(q.Odds, 0) || q.Odds <= 1 {
				return fmt.Errorf("arb: %s odds %v on outcome %q: %w",
					q.Bookmaker, q.Odds, oc.Label, domain.ErrInvalidOdds)
			}
		}
	}
	if math.IsNaN(totalStake) || math.IsInf(totalStake, 0) || totalStake <= 0 {
		return fmt.Errorf("arb: total stake %v: %w", totalStake, domain.ErrInvalidStake)
	}
	return nil
}

// ConservesStake reports whether the evaluation's stake plan sums back to
// the requested total within the engine's rounding tolerance.
func ConservesStake(ev domain.Evaluation) bool {
	if !ev.IsArbitrage {
		return len(ev.Stakes) == 0
	}
	var sum float64
	for _, a := range ev.Stakes {
		sum += a.Stake
	}
	return math.Abs(sum-ev.TotalStake) <= stakeEpsilon*ev.TotalStake
}

package arb

import (
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// minQuotesForConsensus is the minimum number of bookmakers that must price
// an outcome before their average is treated as a fair-odds consensus.
const minQuotesForConsensus = 2

// ValueBets scans a market book for quotes priced above the market
// consensus. The fair probability of an outcome is the average implied
// probability (1/odds) across all bookmakers pricing it; a quote is a value
// bet when its odds beat the fair odds by at least minEdgePercent.
//
// Outcomes priced by fewer than two bookmakers are skipped, since a single
// quote has nothing to deviate from.
func ValueBets(book domain.MarketBook, minEdgePercent float64, now time.Time) []domain.ValueBet {
	var out []domain.ValueBet
	for _, oc := range book.Outcomes {
		if len(oc.Quotes) < minQuotesForConsensus {
			continue
		}

		var probSum float64
		for _, q := range oc.Quotes {
			if q.Odds <= 1 {
				probSum = 0
				break
			}
			probSum += 1 / q.Odds
		}
		if probSum == 0 {
			continue
		}
		fairProb := probSum / float64(len(oc.Quotes))
		fairOdds := 1 / fairProb

		for _, q := range oc.Quotes {
			edge := (q.Odds/fairOdds - 1) * 100
			if edge < minEdgePercent {
				continue
			}
			out = append(out, domain.ValueBet{
				EventID:      book.EventID,
				Market:       book.Market,
				Outcome:      oc.Label,
				Bookmaker:    q.Bookmaker,
				Odds:         q.Odds,
				FairOdds:     fairOdds,
				ValuePercent: edge,
				DetectedAt:   now,
			})
		}
	}
	return out
}

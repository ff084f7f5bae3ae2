package domain

import "time"

// Quote is one bookmaker's decimal odds for a single outcome of a market.
type Quote struct {
	Bookmaker string
	Outcome   string
	Odds      float64
	Timestamp time.Time
}

// OutcomeQuotes holds every quote collected for one outcome of a market.
// Quotes are kept in the order their bookmakers were listed; ties on best
// odds resolve in favour of the earliest entry, which keeps evaluation
// deterministic for identical input.
type OutcomeQuotes struct {
	Label  string
	Quotes []Quote
}

// Best returns the quote with the highest odds for this outcome. When two
// bookmakers post the same price, the one listed first wins. The second
// return value is false when no quotes are present.
func (o OutcomeQuotes) Best() (Quote, bool) {
	if len(o.Quotes) == 0 {
		return Quote{}, false
	}
	best := o.Quotes[0]
	for _, q := range o.Quotes[1:] {
		if q.Odds > best.Odds {
			best = q
		}
	}
	return best, true
}

// MarketBook is the odds snapshot for one market of one event, across all
// bookmakers that currently list it.
type MarketBook struct {
	EventID  string
	Market   string // e.g. "1X2", "over_under_2.5"
	Outcomes []OutcomeQuotes
}

// MatchOdds is a single real-world match together with every market book
// collected for it. HomeTeam/AwayTeam carry the display names from the
// first source that reported the match.
type MatchOdds struct {
	EventID   string
	HomeTeam  string
	AwayTeam  string
	League    string
	Country   string
	StartTime time.Time
	Markets   []MarketBook
}

// Name returns the conventional "Home vs Away" label used in exports and
// notifications.
func (m MatchOdds) Name() string {
	return m.HomeTeam + " vs " + m.AwayTeam
}

// QuoteRecord is a flattened quote row as persisted to the odds archive.
type QuoteRecord struct {
	EventID     string
	MatchName   string
	League      string
	Market      string
	Outcome     string
	Bookmaker   string
	Odds        float64
	CollectedAt time.Time
}

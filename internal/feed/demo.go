package feed

import (
	"context"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// DemoSource serves canned fixtures so the whole pipeline can run without
// network access. Fixtures are deterministic for a given kickoff time.
type DemoSource struct {
	name    string
	matches []domain.MatchOdds
}

// Name implements Source.
func (d *DemoSource) Name() string { return d.name }

// Fetch implements Source.
func (d *DemoSource) Fetch(ctx context.Context) ([]domain.MatchOdds, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.MatchOdds, len(d.matches))
	copy(out, d.matches)
	return out, nil
}

// NewDemoSources builds one demo source per sample bookmaker. The fixture
// set contains a superclásico whose best prices across the three books form
// a small arbitrage, plus a second match with no edge.
func NewDemoSources(kickoff time.Time) []Source {
	kickoff = kickoff.UTC()
	later := kickoff.Add(3 * time.Hour)

	mk := func(bookmaker string, home, draw, away, home2, draw2, away2 float64) *DemoSource {
		ts := kickoff.Add(-time.Hour)
		quote := func(outcome string, odds float64) domain.OutcomeQuotes {
			return domain.OutcomeQuotes{
				Label: outcome,
				Quotes: []domain.Quote{{
					Bookmaker: bookmaker,
					Outcome:   outcome,
					Odds:      odds,
					Timestamp: ts,
				}},
			}
		}
		return &DemoSource{
			name: bookmaker,
			matches: []domain.MatchOdds{
				{
					HomeTeam:  "Boca Juniors",
					AwayTeam:  "River Plate",
					League:    "Liga Profesional",
					Country:   "Argentina",
					StartTime: kickoff,
					Markets: []domain.MarketBook{{
						Market: "1X2",
						Outcomes: []domain.OutcomeQuotes{
							quote("Home", home),
							quote("Draw", draw),
							quote("Away", away),
						},
					}},
				},
				{
					HomeTeam:  "Racing Club",
					AwayTeam:  "Independiente",
					League:    "Liga Profesional",
					Country:   "Argentina",
					StartTime: later,
					Markets: []domain.MarketBook{{
						Market: "1X2",
						Outcomes: []domain.OutcomeQuotes{
							quote("Home", home2),
							quote("Draw", draw2),
							quote("Away", away2),
						},
					}},
				},
			},
		}
	}

	// Best prices across the three books: 2.50 / 3.60 / 3.30, a ~1.9% edge.
	return []Source{
		mk("betwarrior", 2.50, 3.30, 3.10, 2.10, 3.20, 3.40),
		mk("codere", 2.35, 3.60, 3.05, 2.05, 3.25, 3.45),
		mk("bplay", 2.40, 3.40, 3.30, 2.12, 3.15, 3.50),
	}
}

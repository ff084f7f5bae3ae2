// Package feed collects bookmaker odds and consolidates them into one
// market book per real-world match.
package feed

import (
	"context"

	"github.com/jmfarina/betscan/internal/domain"
)

// Source is one bookmaker odds provider.
type Source interface {
	// Name returns the bookmaker identifier used in quotes and logs.
	Name() string

	// Fetch returns the matches currently listed by this bookmaker, with
	// every quote attributed to this source.
	Fetch(ctx context.Context) ([]domain.MatchOdds, error)
}

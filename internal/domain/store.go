package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// OddsStore archives raw collected quotes.
type OddsStore interface {
	InsertBatch(ctx context.Context, records []QuoteRecord) error
	ListByEvent(ctx context.Context, eventID string, opts ListOpts) ([]QuoteRecord, error)
	Count(ctx context.Context) (int64, error)
}

// SurebetStore persists detected arbitrage opportunities and their legs.
type SurebetStore interface {
	Insert(ctx context.Context, sb Surebet) error
	GetByID(ctx context.Context, id string) (Surebet, error)
	ListRecent(ctx context.Context, limit int) ([]Surebet, error)
	SumGuaranteedProfit(ctx context.Context, since time.Time) (float64, error)
}

// DexOpportunityStore persists detected pool price moves.
type DexOpportunityStore interface {
	Insert(ctx context.Context, opp DexOpportunity) error
	ListRecent(ctx context.Context, limit int) ([]DexOpportunity, error)
	ListViable(ctx context.Context, opts ListOpts) ([]DexOpportunity, error)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmfarina/betscan/internal/domain"
)

// DexOpportunityStore implements domain.DexOpportunityStore using PostgreSQL.
type DexOpportunityStore struct {
	pool *pgxpool.Pool
}

// NewDexOpportunityStore creates a new DexOpportunityStore.
func NewDexOpportunityStore(pool *pgxpool.Pool) *DexOpportunityStore {
	return &DexOpportunityStore{pool: pool}
}

// Insert persists one detected pool price move.
func (s *DexOpportunityStore) Insert(ctx context.Context, opp domain.DexOpportunity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dex_opportunities (id, pool_address, token0, token1, dex, chain, fee_tier_bps, price_before, price_after, change_percent, gas_fee_usd, trade_amount_usd, potential_profit_usd, roi_after_fees_percent, viable, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		opp.ID, opp.Pair.PoolAddress, opp.Pair.Token0, opp.Pair.Token1,
		opp.Pair.Dex, opp.Pair.Chain, opp.Pair.FeeTierBps,
		opp.PriceBefore, opp.PriceAfter, opp.ChangePercent,
		opp.GasFeeUSD, opp.TradeAmountUSD, opp.PotentialProfitUSD,
		opp.ROIAfterFeesPercent, opp.Viable, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert dex opportunity: %w", err)
	}
	return nil
}

// ListRecent returns the most recent opportunities.
func (s *DexOpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.DexOpportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, selectOpportunity+` ORDER BY detected_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list dex opportunities: %w", err)
	}
	defer rows.Close()
	return scanOpportunities(rows)
}

// ListViable returns viable opportunities, newest first.
func (s *DexOpportunityStore) ListViable(ctx context.Context, opts domain.ListOpts) ([]domain.DexOpportunity, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		selectOpportunity+` WHERE viable ORDER BY detected_at DESC LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list viable dex opportunities: %w", err)
	}
	defer rows.Close()
	return scanOpportunities(rows)
}

const selectOpportunity = `
	SELECT id, pool_address, token0, token1, dex, chain, fee_tier_bps, price_before, price_after, change_percent, gas_fee_usd, trade_amount_usd, potential_profit_usd, roi_after_fees_percent, viable, detected_at
	FROM dex_opportunities`

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanOpportunities(rows rowScanner) ([]domain.DexOpportunity, error) {
	var list []domain.DexOpportunity
	for rows.Next() {
		var opp domain.DexOpportunity
		if err := rows.Scan(&opp.ID, &opp.Pair.PoolAddress, &opp.Pair.Token0, &opp.Pair.Token1,
			&opp.Pair.Dex, &opp.Pair.Chain, &opp.Pair.FeeTierBps,
			&opp.PriceBefore, &opp.PriceAfter, &opp.ChangePercent,
			&opp.GasFeeUSD, &opp.TradeAmountUSD, &opp.PotentialProfitUSD,
			&opp.ROIAfterFeesPercent, &opp.Viable, &opp.DetectedAt); err != nil {
			return nil, err
		}
		list = append(list, opp)
	}
	return list, rows.Err()
}

// Compile-time interface check.
var _ domain.DexOpportunityStore = (*DexOpportunityStore)(nil)

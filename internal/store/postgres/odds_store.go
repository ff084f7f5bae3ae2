package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmfarina/betscan/internal/domain"
)

// OddsStore implements domain.OddsStore using PostgreSQL.
type OddsStore struct {
	pool *pgxpool.Pool
}

// NewOddsStore creates a new OddsStore.
func NewOddsStore(pool *pgxpool.Pool) *OddsStore {
	return &OddsStore{pool: pool}
}

// InsertBatch appends a batch of collected quotes using a single pgx batch
// round trip.
func (s *OddsStore) InsertBatch(ctx context.Context, records []domain.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO odds_quotes (event_id, match_name, league, market, outcome, bookmaker, odds, collected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.EventID, r.MatchName, r.League, r.Market, r.Outcome, r.Bookmaker, r.Odds, r.CollectedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert odds batch: %w", err)
		}
	}
	return nil
}

// ListByEvent returns collected quotes for one event, newest first.
func (s *OddsStore) ListByEvent(ctx context.Context, eventID string, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}

	rows, err := s.pool.Query(ctx, `
		SELECT event_id, match_name, league, market, outcome, bookmaker, odds, collected_at
		FROM odds_quotes
		WHERE event_id = $1
		ORDER BY collected_at DESC
		LIMIT $2 OFFSET $3`,
		eventID, limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list odds %s: %w", eventID, err)
	}
	defer rows.Close()

	var list []domain.QuoteRecord
	for rows.Next() {
		var r domain.QuoteRecord
		if err := rows.Scan(&r.EventID, &r.MatchName, &r.League, &r.Market, &r.Outcome, &r.Bookmaker, &r.Odds, &r.CollectedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// Count returns the number of archived quote rows.
func (s *OddsStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM odds_quotes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count odds: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.OddsStore = (*OddsStore)(nil)

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmfarina/betscan/internal/domain"
)

// SurebetStore implements domain.SurebetStore using PostgreSQL.
type SurebetStore struct {
	pool *pgxpool.Pool
}

// NewSurebetStore creates a new SurebetStore.
func NewSurebetStore(pool *pgxpool.Pool) *SurebetStore {
	return &SurebetStore{pool: pool}
}

// Insert persists a surebet and its legs in one transaction.
func (s *SurebetStore) Insert(ctx context.Context, sb domain.Surebet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO surebets (id, event_id, match_name, league, country, market, margin_percent, roi_percent, total_stake, guaranteed_return, guaranteed_profit, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sb.ID, sb.EventID, sb.MatchName, sb.League, sb.Country, sb.Market,
		sb.MarginPercent, sb.ROIPercent, sb.TotalStake, sb.GuaranteedReturn,
		sb.GuaranteedProfit, sb.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert surebet: %w", err)
	}

	for _, leg := range sb.Legs {
		_, err = tx.Exec(ctx, `
			INSERT INTO surebet_legs (surebet_id, outcome, bookmaker, odds, stake, payout)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			sb.ID, leg.Outcome, leg.Bookmaker, leg.Odds, leg.Stake, leg.Payout,
		)
		if err != nil {
			return fmt.Errorf("postgres: insert surebet leg: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID returns a surebet with its legs.
func (s *SurebetStore) GetByID(ctx context.Context, id string) (domain.Surebet, error) {
	var sb domain.Surebet
	err := s.pool.QueryRow(ctx, `
		SELECT id, event_id, match_name, league, country, market, margin_percent, roi_percent, total_stake, guaranteed_return, guaranteed_profit, detected_at
		FROM surebets WHERE id = $1`,
		id,
	).Scan(&sb.ID, &sb.EventID, &sb.MatchName, &sb.League, &sb.Country, &sb.Market,
		&sb.MarginPercent, &sb.ROIPercent, &sb.TotalStake, &sb.GuaranteedReturn,
		&sb.GuaranteedProfit, &sb.DetectedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Surebet{}, domain.ErrNotFound
		}
		return domain.Surebet{}, fmt.Errorf("postgres: get surebet %s: %w", id, err)
	}

	legs, err := s.legsFor(ctx, id)
	if err != nil {
		return domain.Surebet{}, err
	}
	sb.Legs = legs
	return sb, nil
}

// ListRecent returns the most recent surebets, legs included.
func (s *SurebetStore) ListRecent(ctx context.Context, limit int) ([]domain.Surebet, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, match_name, league, country, market, margin_percent, roi_percent, total_stake, guaranteed_return, guaranteed_profit, detected_at
		FROM surebets ORDER BY detected_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list surebets: %w", err)
	}
	defer rows.Close()

	var list []domain.Surebet
	for rows.Next() {
		var sb domain.Surebet
		if err := rows.Scan(&sb.ID, &sb.EventID, &sb.MatchName, &sb.League, &sb.Country, &sb.Market,
			&sb.MarginPercent, &sb.ROIPercent, &sb.TotalStake, &sb.GuaranteedReturn,
			&sb.GuaranteedProfit, &sb.DetectedAt); err != nil {
			return nil, err
		}
		list = append(list, sb)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		legs, err := s.legsFor(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Legs = legs
	}
	return list, nil
}

// SumGuaranteedProfit returns the theoretical profit of every surebet
// detected since the given time.
func (s *SurebetStore) SumGuaranteedProfit(ctx context.Context, since time.Time) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(guaranteed_profit), 0) FROM surebets WHERE detected_at >= $1`,
		since,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum surebet profit: %w", err)
	}
	return sum, nil
}

func (s *SurebetStore) legsFor(ctx context.Context, surebetID string) ([]domain.Allocation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT outcome, bookmaker, odds, stake, payout
		FROM surebet_legs WHERE surebet_id = $1 ORDER BY id`,
		surebetID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: get surebet legs: %w", err)
	}
	defer rows.Close()

	var legs []domain.Allocation
	for rows.Next() {
		var leg domain.Allocation
		if err := rows.Scan(&leg.Outcome, &leg.Bookmaker, &leg.Odds, &leg.Stake, &leg.Payout); err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

// Compile-time interface check.
var _ domain.SurebetStore = (*SurebetStore)(nil)

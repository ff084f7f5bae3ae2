package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
	"github.com/redis/go-redis/v9"
)

// bestOddsTTL bounds how long a best-odds snapshot stays readable after the
// scanner stops refreshing it. Stale odds are worse than no odds.
const bestOddsTTL = 10 * time.Minute

// OddsCache implements domain.OddsCache. The best quote per outcome of a
// market book is stored as a JSON array at "odds:{eventID}:{market}".
type OddsCache struct {
	rdb *redis.Client
}

// NewOddsCache creates an OddsCache backed by the given Client.
func NewOddsCache(c *Client) *OddsCache {
	return &OddsCache{rdb: c.rdb}
}

func oddsKey(eventID, market string) string {
	return "odds:" + eventID + ":" + market
}

// SetBest stores the current best quotes for one market book.
func (oc *OddsCache) SetBest(ctx context.Context, eventID, market string, best []domain.Quote) error {
	data, err := json.Marshal(best)
	if err != nil {
		return fmt.Errorf("redis: encode best odds %s/%s: %w", eventID, market, err)
	}
	if err := oc.rdb.Set(ctx, oddsKey(eventID, market), data, bestOddsTTL).Err(); err != nil {
		return fmt.Errorf("redis: set best odds %s/%s: %w", eventID, market, err)
	}
	return nil
}

// GetBest retrieves the stored best quotes for one market book. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (oc *OddsCache) GetBest(ctx context.Context, eventID, market string) ([]domain.Quote, error) {
	data, err := oc.rdb.Get(ctx, oddsKey(eventID, market)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get best odds %s/%s: %w", eventID, market, err)
	}

	var best []domain.Quote
	if err := json.Unmarshal(data, &best); err != nil {
		return nil, fmt.Errorf("redis: decode best odds %s/%s: %w", eventID, market, err)
	}
	return best, nil
}

// Compile-time interface check.
var _ domain.OddsCache = (*OddsCache)(nil)

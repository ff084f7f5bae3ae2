package domain

import (
	"fmt"
	"time"
)

// TokenPair identifies one V3 liquidity pool being monitored.
type TokenPair struct {
	PoolAddress string
	Token0      string // symbol, e.g. "WETH"
	Token1      string // symbol, e.g. "USDC"
	Dex         string // "uniswap_v3", "pancakeswap_v3"
	Chain       string // "ethereum", "bsc"
	FeeTierBps  int
}

// Key returns the cache/cooldown key for this pair, unique per chain.
func (p TokenPair) Key() string {
	return p.Chain + ":" + p.PoolAddress
}

// Label returns the human-readable name used in alerts and logs.
func (p TokenPair) Label() string {
	return fmt.Sprintf("%s/%s @ %s (%s)", p.Token0, p.Token1, p.Dex, p.Chain)
}

// PricePoint is one observed pool price at a point in time, expressed as
// token1 per token0.
type PricePoint struct {
	Pair      TokenPair
	Price     float64
	Timestamp time.Time
}

// DexOpportunity is a pool price move large enough to clear the configured
// change threshold, with gas-adjusted profitability on the configured trade
// size. Viable is true only when ROI after fees meets the minimum.
type DexOpportunity struct {
	ID                  string
	Pair                TokenPair
	PriceBefore         float64
	PriceAfter          float64
	ChangePercent       float64
	GasFeeUSD           float64
	TradeAmountUSD      float64
	PotentialProfitUSD  float64
	ROIAfterFeesPercent float64
	Viable              bool
	DetectedAt          time.Time
}

package domain

import "time"

// Allocation is the stake placed on one outcome of an arbitrage, at the
// bookmaker offering the best odds for that outcome.
type Allocation struct {
	Outcome   string
	Bookmaker string
	Odds      float64
	Stake     float64
	Payout    float64 // Stake * Odds
}

// Evaluation is the full result of running the arbitrage engine over one
// market book. Margin and InverseSum are reported for every market; the
// stake plan is populated only when IsArbitrage is true.
type Evaluation struct {
	EventID          string
	Market           string
	InverseSum       float64
	MarginPercent    float64
	IsArbitrage      bool
	TotalStake       float64
	Stakes           []Allocation
	GuaranteedReturn float64
	GuaranteedProfit float64
	ROIPercent       float64
}

// Surebet is a detected arbitrage opportunity enriched with match context,
// as persisted, exported, and pushed to notification channels.
type Surebet struct {
	ID               string
	EventID          string
	MatchName        string
	League           string
	Country          string
	Market           string
	MarginPercent    float64
	ROIPercent       float64
	TotalStake       float64
	GuaranteedReturn float64
	GuaranteedProfit float64
	Legs             []Allocation
	DetectedAt       time.Time
}

// ValueBet is a single bookmaker price that beats the consensus fair odds
// for an outcome by at least the configured edge.
type ValueBet struct {
	EventID      string
	MatchName    string
	Market       string
	Outcome      string
	Bookmaker    string
	Odds         float64
	FairOdds     float64
	ValuePercent float64
	DetectedAt   time.Time
}

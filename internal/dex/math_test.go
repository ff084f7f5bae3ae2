package dex

import (
	"math"
	"math/big"
	"testing"
)

func sqrtX96(mult float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(mult), q96)
	i, _ := f.Int(nil)
	return i
}

func TestPriceFromSqrtX96(t *testing.T) {
	tests := []struct {
		name       string
		sqrt       *big.Int
		dec0, dec1 int
		want       float64
	}{
		{"unit price equal decimals", sqrtX96(1), 18, 18, 1.0},
		{"sqrt doubles price quadruples", sqrtX96(2), 18, 18, 4.0},
		{"fractional sqrt", sqrtX96(0.5), 18, 18, 0.25},
		{"decimal adjustment up", sqrtX96(1), 18, 6, 1e12},
		{"decimal adjustment down", sqrtX96(1), 6, 18, 1e-12},
		{"nil sqrt", nil, 18, 18, 0},
		{"zero sqrt", big.NewInt(0), 18, 18, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceFromSqrtX96(tt.sqrt, tt.dec0, tt.dec1)
			if tt.want == 0 {
				if got != 0 {
					t.Fatalf("price = %v, want 0", got)
				}
				return
			}
			if math.Abs(got-tt.want)/tt.want > 1e-9 {
				t.Fatalf("price = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChangePercent(t *testing.T) {
	tests := []struct {
		before, after, want float64
	}{
		{100, 105, 5},
		{100, 95, -5},
		{200, 200, 0},
		{0, 123, 0},
	}
	for _, tt := range tests {
		if got := ChangePercent(tt.before, tt.after); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ChangePercent(%v, %v) = %v, want %v", tt.before, tt.after, got, tt.want)
		}
	}
}

func TestGasFeeUSD(t *testing.T) {
	// 50 gwei * 200k gas = 0.01 native, at $3000 that is $30.
	gasPrice := new(big.Int).Mul(big.NewInt(50), big.NewInt(1e9))
	got := GasFeeUSD(gasPrice, 200_000, 3000)
	if math.Abs(got-30) > 1e-9 {
		t.Fatalf("gas fee = %v, want 30", got)
	}

	if got := GasFeeUSD(nil, 200_000, 3000); got != 0 {
		t.Fatalf("nil gas price fee = %v, want 0", got)
	}
}

func TestProfitability(t *testing.T) {
	tests := []struct {
		name                  string
		change, trade, gas    float64
		wantProfit, wantROI   float64
	}{
		// 5% of $1000 is $50 gross; gas charged for both swap legs.
		{"profitable", 5, 1000, 10, 30, 3},
		{"gas eats the edge", 5, 1000, 30, -10, -1},
		{"negative move same magnitude", -5, 1000, 10, 30, 3},
		{"zero trade amount", 5, 0, 10, -20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profit, roi := Profitability(tt.change, tt.trade, tt.gas)
			if math.Abs(profit-tt.wantProfit) > 1e-9 {
				t.Errorf("profit = %v, want %v", profit, tt.wantProfit)
			}
			if math.Abs(roi-tt.wantROI) > 1e-9 {
				t.Errorf("roi = %v, want %v", roi, tt.wantROI)
			}
		})
	}
}

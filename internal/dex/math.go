// Package dex monitors V3 liquidity pool prices over JSON-RPC and flags
// price moves large enough to trade after gas.
package dex

import (
	"math"
	"math/big"
)

// q96 is the 2^96 fixed-point scale used by V3 sqrtPriceX96 values.
var q96 = new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// PriceFromSqrtX96 converts a pool's sqrtPriceX96 into a human price of
// token1 per token0, adjusting for the tokens' decimal scales.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, token0Decimals, token1Decimals int) float64 {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(sqrtPriceX96), q96)
	ratio.Mul(ratio, ratio)

	price, _ := ratio.Float64()
	return price * math.Pow10(token0Decimals-token1Decimals)
}

// ChangePercent returns the relative price change in percent, signed.
func ChangePercent(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}

// GasFeeUSD prices one swap at the given gas price and limit, using the
// chain's native token USD spot.
func GasFeeUSD(gasPriceWei *big.Int, gasLimit uint64, nativeUSD float64) float64 {
	if gasPriceWei == nil {
		return 0
	}
	wei := new(big.Float).SetInt(gasPriceWei)
	wei.Mul(wei, new(big.Float).SetUint64(gasLimit))
	native, _ := new(big.Float).Quo(wei, big.NewFloat(1e18)).Float64()
	return native * nativeUSD
}

// Profitability evaluates capturing a price move of changePercent with
// tradeAmountUSD. Fees charge gas twice: one swap in, one swap out.
func Profitability(changePercent, tradeAmountUSD, gasFeeUSD float64) (profitUSD, roiPercent float64) {
	gross := tradeAmountUSD * math.Abs(changePercent) / 100
	profitUSD = gross - 2*gasFeeUSD
	if tradeAmountUSD > 0 {
		roiPercent = profitUSD / tradeAmountUSD * 100
	}
	return profitUSD, roiPercent
}

package notify

import (
	"fmt"
	"strings"

	"github.com/jmfarina/betscan/internal/domain"
)

// FormatSurebet renders a surebet alert body: match context, edge, and the
// full stake plan.
func FormatSurebet(sb domain.Surebet) (title, message string) {
	title = fmt.Sprintf("Surebet %.2f%% — %s", sb.MarginPercent, sb.MatchName)

	var b strings.Builder
	fmt.Fprintf(&b, "%s · %s\n", sb.League, sb.Market)
	fmt.Fprintf(&b, "Margin %.2f%% · ROI %.2f%%\n", sb.MarginPercent, sb.ROIPercent)
	fmt.Fprintf(&b, "Stake %.2f → return %.2f (profit %.2f)\n",
		sb.TotalStake, sb.GuaranteedReturn, sb.GuaranteedProfit)
	for _, leg := range sb.Legs {
		fmt.Fprintf(&b, "  %s @ %s: %.2f, stake %.2f\n",
			leg.Outcome, leg.Bookmaker, leg.Odds, leg.Stake)
	}
	return title, b.String()
}

// FormatValueBet renders a value-bet alert body.
func FormatValueBet(vb domain.ValueBet) (title, message string) {
	title = fmt.Sprintf("Value bet +%.1f%% — %s", vb.ValuePercent, vb.MatchName)
	message = fmt.Sprintf("%s · %s @ %s\nOdds %.2f vs fair %.2f",
		vb.Market, vb.Outcome, vb.Bookmaker, vb.Odds, vb.FairOdds)
	return title, message
}

// FormatDexMove renders a pool price move alert body.
func FormatDexMove(opp domain.DexOpportunity) (title, message string) {
	direction := "up"
	if opp.ChangePercent < 0 {
		direction = "down"
	}
	title = fmt.Sprintf("%s %s %.2f%%", opp.Pair.Label(), direction, opp.ChangePercent)

	var b strings.Builder
	fmt.Fprintf(&b, "Price %.6g → %.6g\n", opp.PriceBefore, opp.PriceAfter)
	fmt.Fprintf(&b, "Trade %.2f USD · gas %.2f USD\n", opp.TradeAmountUSD, opp.GasFeeUSD)
	fmt.Fprintf(&b, "Profit %.2f USD · ROI after fees %.2f%%", opp.PotentialProfitUSD, opp.ROIAfterFeesPercent)
	if !opp.Viable {
		b.WriteString(" (below threshold)")
	}
	return title, b.String()
}

package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"options-income/internal/models"
	"options-income/internal/narrative"
	"options-income/pkg/utils"
)

// FormatLeg renders a leg as "SELL 235P 2026-04-07".
func FormatLeg(l models.OptionLeg) string {
	suffix := "C"
	if l.Contract.Type == models.OptionPut {
		suffix = "P"
	}
	return fmt.Sprintf("%s %s%s %s",
		strings.ToUpper(string(l.Side)),
		utils.FormatStrike(l.Contract.Strike), suffix,
		l.Contract.Expiration.Format("2006-01-02"))
}

// FormatLegs renders every leg separated by " / ".
func FormatLegs(legs []models.OptionLeg) string {
	parts := make([]string, len(legs))
	for i, l := range legs {
		parts[i] = FormatLeg(l)
	}
	return strings.Join(parts, " / ")
}

// FormatBreakevens renders breakeven prices as dollars.
func FormatBreakevens(bes []float64) string {
	if len(bes) == 0 {
		return "-"
	}
	parts := make([]string, len(bes))
	for i, b := range bes {
		parts[i] = utils.FormatCurrency(b)
	}
	return strings.Join(parts, ", ")
}

// FormatStrategy returns the short label of a strategy.
func FormatStrategy(t models.StrategyType) string {
	switch t {
	case models.StrategyCashSecuredPut:
		return "CSP"
	case models.StrategyCoveredCall:
		return "CC"
	case models.StrategyPutCreditSpread:
		return "PCS"
	case models.StrategyCallCreditSpread:
		return "CCS"
	}
	return string(t)
}

// FormatDuration renders a run duration, or "-" for unfinished runs.
func FormatDuration(start, end time.Time) string {
	if end.IsZero() || end.Before(start) {
		return "-"
	}
	return end.Sub(start).Round(time.Millisecond).String()
}

// printPacket prints one packet's detail block.
func printPacket(o *Output, p *models.TradePacket) {
	c := &p.Candidate
	o.Bold("#%d %s %s  score %s  confidence %d%%  uncertainty %d%%",
		p.Rank, c.Symbol, narrative.StrategyName(c.Strategy), o.FormatScore(c.Score),
		c.Conviction.Confidence, c.Conviction.Uncertainty)
	o.Printf("  Legs:        %s\n", FormatLegs(c.Legs))
	o.Printf("  Credit:      %s  (%d DTE)\n", utils.FormatCurrency(c.NetCredit), c.DTE)
	if long := c.LongLeg(); c.Strategy.IsSpread() && long != nil {
		o.Printf("  Width:       %s\n", utils.FormatStrike(math.Abs(c.ShortLeg().Contract.Strike-long.Contract.Strike)))
	}
	o.Printf("  Max profit:  %s\n", utils.FormatCurrency(c.RiskBox.MaxProfit))
	o.Printf("  Max loss:    %s\n", utils.FormatCurrency(c.RiskBox.MaxLoss))
	o.Printf("  Breakeven:   %s\n", FormatBreakevens(c.RiskBox.Breakevens))
	o.Printf("  Annualized:  %s   POP %s\n",
		utils.FormatPlainPercent(c.RiskBox.AnnualizedReturn),
		utils.FormatPlainPercent(c.RiskBox.ProbabilityOfProfit))

	if len(c.Reasons) > 0 {
		o.Println("  Checks:")
		for _, r := range c.Reasons {
			mark := o.ColoredString(ColorGreen, "pass")
			if !r.Passed {
				mark = o.ColoredString(ColorRed, "fail")
			}
			o.Printf("    [%s] %-18s %s (threshold %s)\n", mark, r.Check, r.Observed, r.Threshold)
		}
	}
	for _, rule := range c.ExitRules {
		o.Printf("  Exit:        %s\n", rule)
	}
	for _, inv := range c.Invalidations {
		o.Printf("  Invalid if:  %s\n", inv)
	}
	if p.Explanation != "" {
		o.Println()
		o.Dim("  %s", p.Explanation)
	}
	o.Println()
}

// printRegime prints the regime summary line.
func printRegime(o *Output, r *models.MarketRegime) {
	if r == nil {
		return
	}
	o.Bold("Market regime (%s)", r.Benchmark)
	o.Printf("  Trend: %s (%.1f)  Volatility: %s  Posture: %s  Breadth: %s\n",
		r.Trend, r.TrendScore, r.Volatility, r.RiskPosture, r.Breadth.Assessment)
	if len(r.Leadership) > 0 {
		var leaders []string
		for i, l := range r.Leadership {
			if i == 3 {
				break
			}
			leaders = append(leaders, fmt.Sprintf("%s %.0f", l.Symbol, l.TrendScore))
		}
		o.Printf("  Leaders: %s\n", strings.Join(leaders, ", "))
	}
	o.Println()
}

// printResult prints a run result as a table followed by packet details.
func printResult(o *Output, result *models.RunResult, detailed bool) {
	o.Info("Run %s  %s", result.RunID, result.Status)
	o.Dim("Symbols %d/%d analyzed, %d candidates, %d ranked, %s",
		result.SymbolsAnalyzed, result.SymbolsRequested, result.CandidatesGenerated,
		len(result.Packets), FormatDuration(result.StartedAt, result.CompletedAt))
	o.Println()
	printRegime(o, result.Regime)

	if len(result.Packets) == 0 {
		o.Warning("No trade packets passed ranking")
		return
	}

	table := NewTable(o, "#", "SYMBOL", "STRATEGY", "SCORE", "CREDIT", "MAX LOSS", "DTE", "LEGS").AlignRight(0, 3, 4, 5, 6)
	for _, p := range result.Packets {
		table.AddRow(
			fmt.Sprintf("%d", p.Rank),
			p.Symbol(),
			FormatStrategy(p.Strategy()),
			o.FormatScore(p.Score()),
			utils.FormatCurrency(p.Candidate.NetCredit),
			utils.FormatCurrency(p.MaxLoss()),
			fmt.Sprintf("%d", p.Candidate.DTE),
			FormatLegs(p.Candidate.Legs),
		)
	}
	table.Render()
	o.Println()

	s := result.Stats
	o.Dim("Average score %.1f, total max loss %s, total credit %s",
		s.AverageScore, utils.FormatCurrency(s.TotalMaxLoss), utils.FormatCurrency(s.TotalNetCredit))

	if detailed {
		o.Println()
		for i := range result.Packets {
			printPacket(o, &result.Packets[i])
		}
	}
}

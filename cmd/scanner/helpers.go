package main

import (
	"fmt"
	"strings"

	"github.com/carmandale/spy-fly/internal/selector"
	"github.com/carmandale/spy-fly/internal/sentiment"
)

// formatScan renders a scan result as a plain-text report.
func formatScan(symbol string, result *selector.ScanResult) string {
	var sb strings.Builder

	mc := result.MarketContext
	fmt.Fprintf(&sb, "%s scan %s: %s\n", symbol, result.ScanID, result.State)
	fmt.Fprintf(&sb, "  spot %.2f  vix %.2f", mc.Spot, mc.VIX)
	if mc.VIXFallback {
		sb.WriteString(" (default)")
	}
	if result.SentimentKnown {
		fmt.Fprintf(&sb, "  sentiment %.0f", mc.SentimentScore)
	} else {
		sb.WriteString("  sentiment unknown")
	}
	if mc.Expiration != "" {
		fmt.Fprintf(&sb, "  expiration %s", mc.Expiration)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  candidates %d  rejected %d\n", result.CandidateCount, result.RejectedCount)

	if result.Reason != "" {
		fmt.Fprintf(&sb, "  reason: %s\n", result.Reason)
	}

	if len(result.Recommendations) == 0 {
		return sb.String()
	}

	sb.WriteString("\n  #  long/short  debit  max profit  max risk  R/R    PoP    EV      score  qty  cost\n")
	for i, r := range result.Recommendations {
		fmt.Fprintf(&sb, "  %-2d %4.0f/%-5.0f %6.2f %11.2f %9.2f %5.2f %5.1f%% %7.3f %6.3f %4d %8.2f\n",
			i+1, r.LongStrike, r.ShortStrike, r.NetDebit, r.MaxProfit, r.MaxRisk,
			r.RiskRewardRatio, r.ProbabilityOfProfit*100, r.ExpectedValue, r.RankingScore,
			r.Contracts, r.TotalCost)
		if r.SizingWarning != "" {
			fmt.Fprintf(&sb, "     warning: %s\n", r.SizingWarning)
		}
	}
	return sb.String()
}

// formatSentiment renders the score and its breakdown.
func formatSentiment(result *sentiment.Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s sentiment %d/%d: %s", result.Symbol, result.Score, sentiment.MaxCompositeScore, result.Decision)
	if result.Cached {
		sb.WriteString(" (cached)")
	}
	sb.WriteString("\n")

	for _, c := range result.Breakdown {
		fmt.Fprintf(&sb, "  %-10s %2d/%-2d  %s\n", c.Name, c.Score, c.MaxScore, c.Label)
	}

	tech := result.Technical
	fmt.Fprintf(&sb, "  trend %s  price %.2f", tech.Trend, tech.Price)
	if tech.RSI != nil {
		fmt.Fprintf(&sb, "  rsi %.1f", *tech.RSI)
	}
	if tech.MA50 != nil {
		fmt.Fprintf(&sb, "  ma50 %.2f", *tech.MA50)
	}
	if tech.RealizedVolatility != nil {
		fmt.Fprintf(&sb, "  realized vol %.1f%%", *tech.RealizedVolatility*100)
	}
	sb.WriteString("\n")
	return sb.String()
}

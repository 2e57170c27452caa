package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/carmandale/spy-fly/internal/selector"
)

// maxListed caps how many recommendations appear in a notification body.
const maxListed = 3

// FormatScanTitle summarizes the outcome in one line.
func FormatScanTitle(symbol string, result *selector.ScanResult) string {
	switch {
	case result.State == selector.Error:
		return fmt.Sprintf("Scan Error: %s", symbol)
	case len(result.Recommendations) == 0:
		return fmt.Sprintf("No Trade: %s", symbol)
	default:
		return fmt.Sprintf("%s: %d spread(s) for %s", symbol, len(result.Recommendations), result.MarketContext.Expiration)
	}
}

// FormatScanMessage creates the notification body.
func FormatScanMessage(result *selector.ScanResult) string {
	var sb strings.Builder

	mc := result.MarketContext
	sb.WriteString(fmt.Sprintf("Spot: %.2f\n", mc.Spot))
	if mc.VIXFallback {
		sb.WriteString(fmt.Sprintf("VIX: %.2f (default)\n", mc.VIX))
	} else {
		sb.WriteString(fmt.Sprintf("VIX: %.2f\n", mc.VIX))
	}
	if result.Sentiment != nil {
		sb.WriteString(fmt.Sprintf("Sentiment: %d (%s)\n", result.Sentiment.Score, result.Sentiment.Decision))
	} else {
		sb.WriteString("Sentiment: unknown\n")
	}
	sb.WriteString(fmt.Sprintf("Candidates: %d, rejected: %d\n", result.CandidateCount, result.RejectedCount))
	sb.WriteString(fmt.Sprintf("Duration: %s", result.Duration.Round(time.Millisecond)))

	if result.Reason != "" {
		sb.WriteString(fmt.Sprintf("\n\nReason: %s", result.Reason))
	}

	if len(result.Recommendations) > 0 {
		sb.WriteString("\n\nTop spreads:\n")
		limit := min(len(result.Recommendations), maxListed)
		for i := 0; i < limit; i++ {
			r := result.Recommendations[i]
			sb.WriteString(fmt.Sprintf("%d. %.0f/%.0f debit %.2f x%d, PoP %.0f%%, score %.3f\n",
				i+1, r.LongStrike, r.ShortStrike, r.NetDebit, r.Contracts,
				r.ProbabilityOfProfit*100, r.RankingScore))
		}
		if len(result.Recommendations) > maxListed {
			sb.WriteString(fmt.Sprintf("... and %d more", len(result.Recommendations)-maxListed))
		}
	}

	return sb.String()
}

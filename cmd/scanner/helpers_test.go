package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
	"github.com/carmandale/spy-fly/internal/ranking"
	"github.com/carmandale/spy-fly/internal/risk"
	"github.com/carmandale/spy-fly/internal/selector"
	"github.com/carmandale/spy-fly/internal/sentiment"
	"github.com/carmandale/spy-fly/internal/spread"
)

func TestFormatScan(t *testing.T) {
	result := &selector.ScanResult{
		ScanID:         "abc",
		State:          selector.Done,
		SentimentKnown: true,
		MarketContext:  selector.MarketContext{Spot: 580.25, VIX: 20, VIXFallback: true, SentimentScore: 72, Expiration: "2026-10-15"},
		CandidateCount: 4,
		RejectedCount:  1,
		Recommendations: []ranking.Recommendation{{
			Candidate: spread.Candidate{
				LongStrike: 580, ShortStrike: 582, NetDebit: 0.9, MaxProfit: 1.1, MaxRisk: 0.9,
				RiskRewardRatio: 1.22, Contracts: 1, TotalCost: 90, SizingWarning: risk.ForcedMinimumWarning,
			},
			ProbabilityOfProfit: 0.41,
			RankingScore:        0.512,
		}},
	}

	out := formatScan("SPY", result)
	for _, want := range []string{"SPY scan abc: DONE", "vix 20.00 (default)", "sentiment 72", "580/582", "41.0%", "warning: " + risk.ForcedMinimumWarning} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatScan_UnknownSentimentAndReason(t *testing.T) {
	out := formatScan("SPY", &selector.ScanResult{State: selector.Done, Reason: "vix above ceiling"})
	if !strings.Contains(out, "sentiment unknown") || !strings.Contains(out, "reason: vix above ceiling") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "long/short") {
		t.Error("no table expected without recommendations")
	}
}

func TestFormatSentiment(t *testing.T) {
	rsi := 55.0
	out := formatSentiment(&sentiment.Result{
		Symbol:   "SPY",
		Score:    70,
		Decision: sentiment.Proceed,
		Cached:   true,
		Breakdown: []sentiment.ComponentScore{
			{Name: sentiment.ComponentVIX, Score: 20, MaxScore: 20, Label: "low"},
		},
		Technical: sentiment.TechnicalStatus{Price: 580, RSI: &rsi, Trend: "bullish"},
	})

	for _, want := range []string{"SPY sentiment 70/100: PROCEED (cached)", "vix", "rsi 55.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCompressSnapshots(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(`{"quotes":{"SPY":{"price":580}}}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`not json`), 0600); err != nil {
		t.Fatal(err)
	}

	if err := compressSnapshots([]string{good}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(good); !os.IsNotExist(err) {
		t.Error("original should be removed")
	}

	src, err := marketdata.NewFileSource(good+".zst", zap.NewNop())
	if err != nil {
		t.Fatalf("compressed snapshot should load: %v", err)
	}
	if q, err := src.GetQuote(t.Context(), "SPY"); err != nil || q.Price != 580 {
		t.Errorf("unexpected quote %v (%v)", q, err)
	}

	if err := compressSnapshots([]string{bad}, false); err == nil {
		t.Error("expected invalid snapshot to fail")
	}
	if _, err := os.Stat(bad + ".zst"); !os.IsNotExist(err) {
		t.Error("partial output should be cleaned up")
	}
}

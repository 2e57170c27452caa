package selector

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/spread"
)

func TestScoreAll_PreservesOrder(t *testing.T) {
	candidates := make([]spread.Candidate, 50)
	for i := range candidates {
		candidates[i] = spread.Candidate{LongStrike: float64(i)}
	}

	results := scoreAll(context.Background(), candidates, 8, func(c spread.Candidate) scored {
		var s scored
		s.ok = true
		s.rec.Candidate = c
		return s
	}, zap.NewNop())

	if len(results) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(results))
	}
	for i, r := range results {
		if !r.ok || r.rec.LongStrike != float64(i) {
			t.Errorf("result %d out of place: %+v", i, r.rec.Candidate)
		}
	}
}

func TestScoreAll_EmptyAndCancelled(t *testing.T) {
	if got := scoreAll(context.Background(), nil, 4, nil, zap.NewNop()); len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := scoreAll(ctx, make([]spread.Candidate, 3), 2, func(spread.Candidate) scored {
		called = true
		return scored{ok: true}
	}, zap.NewNop())

	if called {
		t.Error("no candidate should be scored after cancellation")
	}
	for _, r := range results {
		if r.ok || r.reason != "cancelled" {
			t.Errorf("expected cancelled result, got %+v", r)
		}
	}
}

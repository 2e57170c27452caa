package marketdata

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestReloadableSource_Swap(t *testing.T) {
	first := NewSnapshotSource(Snapshot{Quotes: map[string]Quote{"SPY": {Price: 500}}}, zap.NewNop())
	second := NewSnapshotSource(Snapshot{Quotes: map[string]Quote{"SPY": {Price: 600}}}, zap.NewNop())

	src := NewReloadableSource(first)
	q, err := src.GetQuote(context.Background(), "SPY")
	if err != nil || q.Price != 500 {
		t.Fatalf("expected 500 from first source, got %v (%v)", q, err)
	}

	if old := src.Swap(second); old != Source(first) {
		t.Error("swap should return the previous source")
	}

	q, err = src.GetQuote(context.Background(), "SPY")
	if err != nil || q.Price != 600 {
		t.Fatalf("expected 600 after swap, got %v (%v)", q, err)
	}
}

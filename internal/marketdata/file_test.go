package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

func testSnapshot() Snapshot {
	day := func(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }
	return Snapshot{
		Quotes: map[string]Quote{"SPY": {Price: 580.5}},
		Chains: map[string]OptionChain{
			"SPY": {
				UnderlyingPrice: 580.5,
				Options: []OptionQuote{
					{Strike: 580, Type: Call, Expiration: "2026-01-01", Bid: 2, Ask: 2.1},
					{Strike: 585, Type: Call, Expiration: "2026-01-01", Bid: 0.5, Ask: 0.6},
				},
			},
		},
		Bars: map[string][]Bar{
			"SPY": {{Time: day(12), Close: 1}, {Time: day(13), Close: 2}, {Time: day(14), Close: 3}},
		},
		News: map[string][]Headline{
			"SPY": {{Title: "a"}, {Title: "b"}, {Title: "c"}},
		},
	}
}

func writeSnapshot(t *testing.T, path string, compress bool) {
	t.Helper()
	payload, err := json.Marshal(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			t.Fatal(err)
		}
		payload = enc.EncodeAll(payload, nil)
		enc.Close()
	}
	if err := os.WriteFile(path, payload, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestFileSource_PlainAndCompressed(t *testing.T) {
	dir := t.TempDir()

	for _, tc := range []struct {
		name     string
		file     string
		compress bool
	}{
		{"plain", "snapshot.json", false},
		{"zstd", "snapshot.json.zst", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			writeSnapshot(t, path, tc.compress)

			src, err := NewFileSource(path, zap.NewNop())
			if err != nil {
				t.Fatalf("NewFileSource failed: %v", err)
			}

			q, err := src.GetQuote(context.Background(), "SPY")
			if err != nil {
				t.Fatalf("GetQuote failed: %v", err)
			}
			if q.Price != 580.5 || q.Symbol != "SPY" {
				t.Errorf("unexpected quote: %+v", q)
			}
		})
	}
}

func TestFileSource_ChainRewritesExpiration(t *testing.T) {
	src := NewSnapshotSource(testSnapshot(), zap.NewNop())

	chain, err := src.GetOptionChain(context.Background(), "SPY", "2026-10-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range chain.Options {
		if o.Expiration != "2026-10-15" {
			t.Errorf("expected rewritten expiration, got %s", o.Expiration)
		}
	}

	// The snapshot itself must not be mutated.
	again, _ := src.GetOptionChain(context.Background(), "SPY", "2026-10-16")
	if again.Options[0].Expiration != "2026-10-16" {
		t.Errorf("expected second expiration, got %s", again.Options[0].Expiration)
	}
	if chain.Options[0].Expiration != "2026-10-15" {
		t.Error("earlier chain was mutated by a later request")
	}
}

func TestFileSource_BarsAndNewsFiltering(t *testing.T) {
	src := NewSnapshotSource(testSnapshot(), zap.NewNop())

	from := time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	bars, err := src.GetHistoricalBars(context.Background(), "SPY", from, time.Time{}, Day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Errorf("expected 2 bars from the 13th, got %d", len(bars))
	}

	news, err := src.GetNews(context.Background(), "SPY", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(news) != 2 {
		t.Errorf("expected news limited to 2, got %d", len(news))
	}
}

func TestFileSource_MissingSymbol(t *testing.T) {
	src := NewSnapshotSource(testSnapshot(), zap.NewNop())

	if _, err := src.GetQuote(context.Background(), "QQQ"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for quote, got %v", err)
	}
	if _, err := src.GetOptionChain(context.Background(), "QQQ", "2026-10-15"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for chain, got %v", err)
	}
}

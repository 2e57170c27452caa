package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Snapshot is the on-disk format read by FileSource.
//
// Chains are keyed by symbol; the stored chain is served for any requested
// expiration, with the expiration rewritten on every contract so that
// a snapshot taken on one day can be replayed on another.
type Snapshot struct {
	Quotes map[string]Quote       `json:"quotes"`
	Chains map[string]OptionChain `json:"chains"`
	Bars   map[string][]Bar       `json:"bars"`
	News   map[string][]Headline  `json:"news"`
}

// FileSource serves market data from a JSON snapshot (optionally zstd
// compressed, by .zst extension). It is read-only after load.
type FileSource struct {
	snapshot Snapshot
	logger   *zap.Logger
}

func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}

	logger.Info("loaded market data snapshot",
		zap.String("path", path),
		zap.Int("quotes", len(snap.Quotes)),
		zap.Int("chains", len(snap.Chains)),
		zap.Int("barSeries", len(snap.Bars)),
	)

	return NewSnapshotSource(snap, logger), nil
}

// NewSnapshotSource wraps an in-memory snapshot.
func NewSnapshotSource(snap Snapshot, logger *zap.Logger) *FileSource {
	return &FileSource{snapshot: snap, logger: logger}
}

func (s *FileSource) GetQuote(_ context.Context, symbol string) (*Quote, error) {
	q, ok := s.snapshot.Quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", symbol, ErrNotFound)
	}
	if q.Symbol == "" {
		q.Symbol = symbol
	}
	return &q, nil
}

func (s *FileSource) GetOptionChain(_ context.Context, symbol, expiration string) (*OptionChain, error) {
	chain, ok := s.snapshot.Chains[symbol]
	if !ok {
		return nil, fmt.Errorf("option chain %s: %w", symbol, ErrNotFound)
	}

	options := make([]OptionQuote, len(chain.Options))
	copy(options, chain.Options)
	for i := range options {
		options[i].Expiration = expiration
	}

	return &OptionChain{
		Symbol:          symbol,
		Expiration:      expiration,
		UnderlyingPrice: chain.UnderlyingPrice,
		Options:         options,
	}, nil
}

func (s *FileSource) GetHistoricalBars(_ context.Context, symbol string, from, to time.Time, _ Timeframe) ([]Bar, error) {
	bars, ok := s.snapshot.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("bars %s: %w", symbol, ErrNotFound)
	}

	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if !from.IsZero() && b.Time.Before(from) {
			continue
		}
		if !to.IsZero() && b.Time.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *FileSource) GetNews(_ context.Context, symbol string, limit int) ([]Headline, error) {
	news, ok := s.snapshot.News[symbol]
	if !ok {
		return nil, fmt.Errorf("news %s: %w", symbol, ErrNotFound)
	}
	if limit > 0 && len(news) > limit {
		news = news[:limit]
	}
	out := make([]Headline, len(news))
	copy(out, news)
	return out, nil
}

// Compile-time interface verification
var _ Source = (*FileSource)(nil)

package marketdata

import (
	"context"
	"sync"
	"time"
)

// ReloadableSource delegates to a Source that can be replaced while in use.
type ReloadableSource struct {
	mu      sync.RWMutex
	current Source
}

func NewReloadableSource(initial Source) *ReloadableSource {
	return &ReloadableSource{current: initial}
}

// Swap replaces the underlying source and returns the old one.
func (r *ReloadableSource) Swap(next Source) Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.current
	r.current = next
	return old
}

func (r *ReloadableSource) source() Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *ReloadableSource) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	return r.source().GetQuote(ctx, symbol)
}

func (r *ReloadableSource) GetOptionChain(ctx context.Context, symbol, expiration string) (*OptionChain, error) {
	return r.source().GetOptionChain(ctx, symbol, expiration)
}

func (r *ReloadableSource) GetHistoricalBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]Bar, error) {
	return r.source().GetHistoricalBars(ctx, symbol, from, to, tf)
}

func (r *ReloadableSource) GetNews(ctx context.Context, symbol string, limit int) ([]Headline, error) {
	return r.source().GetNews(ctx, symbol, limit)
}

// Compile-time interface verification
var _ Source = (*ReloadableSource)(nil)

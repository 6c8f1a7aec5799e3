package backend

import (
	"context"
	"time"

	"wolfquant/internal/models"
)

// MarketAdapter fetches candles from one external market data source.
type MarketAdapter interface {
	// FetchCandles returns the bars for symbol in [start, end), ordered by
	// timestamp ascending.
	FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval string) ([]models.Candle, error)
}

// AdapterRegistry maps (asset type, source) pairs to adapters.
type AdapterRegistry struct {
	adapters map[adapterKey]MarketAdapter
}

type adapterKey struct {
	assetType string
	source    string
}

// NewAdapterRegistry returns an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[adapterKey]MarketAdapter)}
}

// Register binds an adapter to an asset type and source name.
func (r *AdapterRegistry) Register(assetType, source string, adapter MarketAdapter) {
	r.adapters[adapterKey{assetType, source}] = adapter
}

// Get looks up the adapter for an asset type and source.
func (r *AdapterRegistry) Get(assetType, source string) (MarketAdapter, bool) {
	a, ok := r.adapters[adapterKey{assetType, source}]
	return a, ok
}

// DefaultAdapters returns the registry shipped with the backend.
func DefaultAdapters() *AdapterRegistry {
	reg := NewAdapterRegistry()
	reg.Register("crypto", "binance", NewBinanceAdapter())
	reg.Register("fund", "sina", NewSinaFundAdapter())
	return reg
}

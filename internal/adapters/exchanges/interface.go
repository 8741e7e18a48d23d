package exchanges

import (
	"context"

	"confluence/internal/domain/market"
)

// Exchange defines the market-data contract an exchange adapter must
// satisfy. Adapters may return fewer bars than requested; callers treat
// a too-short series as insufficient data, not as an adapter failure.
type Exchange interface {
	Name() string

	// GetOHLCV returns an ordered bar series, oldest first
	GetOHLCV(ctx context.Context, symbol string, timeframe string, limit int) ([]market.Bar, error)

	// GetTicker returns the 24h rolling statistics for a symbol
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
}

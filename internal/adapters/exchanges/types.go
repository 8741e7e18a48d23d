package exchanges

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker represents normalized 24h rolling statistics
type Ticker struct {
	Symbol       string
	LastPrice    decimal.Decimal
	BidPrice     decimal.Decimal
	AskPrice     decimal.Decimal
	High24h      decimal.Decimal
	Low24h       decimal.Decimal
	VolumeBase   decimal.Decimal
	VolumeQuote  decimal.Decimal
	Change24hPct decimal.Decimal
	Timestamp    time.Time
}

package signal

import (
	"time"

	"github.com/google/uuid"

	"confluence/internal/domain/market"
)

// TrendDirection encodes the envelope direction of a series
type TrendDirection int

const (
	TrendBullish TrendDirection = 1
	TrendBearish TrendDirection = -1
	TrendNeutral TrendDirection = 0
)

// String returns the human-readable direction name
func (d TrendDirection) String() string {
	switch d {
	case TrendBullish:
		return "BULLISH"
	case TrendBearish:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// Kind is the direction of a trading signal. HOLD is never materialized:
// the absence of a TradingSignal on an AnalysisResult means hold.
type Kind string

const (
	KindBuy  Kind = "BUY"
	KindSell Kind = "SELL"
)

// IndicatorSnapshot is the computed indicator state for the latest bar of
// the primary series. Immutable after creation.
type IndicatorSnapshot struct {
	Symbol    string
	Timestamp time.Time

	Envelope   float64
	Trend      TrendDirection
	Oscillator float64
	ConvLine   float64
	ConvSignal float64

	Support    *float64
	Resistance *float64
}

// Confirmation is an opaque annotation supplied by a downstream validator
// (an AI confluence check). The core only defines the attachment point.
type Confirmation struct {
	Conclusion string // BUY, SELL or NEUTRAL
	Confidence int    // 0-100
	Reasoning  string
}

// TradingSignal is produced once per qualifying envelope crossover.
// It is never mutated after creation except through Annotate.
type TradingSignal struct {
	ID        uuid.UUID
	Symbol    string
	Kind      Kind
	Timestamp time.Time
	Price     float64

	Envelope    float64
	Trend       TrendDirection
	HigherTrend *TrendDirection

	Entry      float64
	StopLoss   float64
	TakeProfit float64

	Support    *float64
	Resistance *float64

	Confirmation *Confirmation
}

// Annotate attaches the external confidence annotation. Single mutation
// point reserved for the downstream confirmation collaborator.
func (s *TradingSignal) Annotate(c Confirmation) {
	s.Confirmation = &Confirmation{
		Conclusion: c.Conclusion,
		Confidence: c.Confidence,
		Reasoning:  c.Reasoning,
	}
}

// AnalysisResult aggregates everything one analysis call produced
type AnalysisResult struct {
	Symbol      string
	Bar         market.Bar // latest primary bar
	Snapshot    IndicatorSnapshot
	Signal      *TradingSignal
	HigherTrend TrendDirection
	Duration    time.Duration
}

// HasSignal reports whether the analysis produced a tradable signal
func (r *AnalysisResult) HasSignal() bool {
	return r != nil && r.Signal != nil
}

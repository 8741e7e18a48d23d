package market

import (
	"math"
	"time"

	"confluence/pkg/errors"
)

// Bar represents one OHLCV candlestick
type Bar struct {
	Symbol    string
	Timeframe string // 1m, 5m, 15m, 1h, 4h, 1d
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ValidateSeries checks the structural invariants of an ordered bar series:
// strictly increasing timestamps, finite positive prices, non-negative
// volume and high >= max(open, close) >= min(open, close) >= low.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return errors.Wrapf(errors.ErrMalformedSeries,
					"bar %d (%s): non-finite or non-positive price", i, b.Timestamp.UTC().Format(time.RFC3339))
			}
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return errors.Wrapf(errors.ErrMalformedSeries, "bar %d: invalid volume %f", i, b.Volume)
		}
		if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
			return errors.Wrapf(errors.ErrMalformedSeries,
				"bar %d: OHLC invariant violated (o=%f h=%f l=%f c=%f)", i, b.Open, b.High, b.Low, b.Close)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return errors.Wrapf(errors.ErrMalformedSeries,
				"bar %d: timestamp %s not after previous %s",
				i, b.Timestamp.UTC().Format(time.RFC3339), bars[i-1].Timestamp.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

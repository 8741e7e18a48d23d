package analysis

import (
	"math"

	"github.com/markcheno/go-talib"

	"confluence/internal/domain/market"
	"confluence/pkg/errors"
)

// Fixed lookbacks for the momentum families. The envelope and pivot
// lookbacks are tunable via Params.
const (
	oscillatorPeriod = 14
	convFastPeriod   = 12
	convSlowPeriod   = 26
	convSignalPeriod = 9
)

// Params are the tunable indicator parameters
type Params struct {
	EnvelopePeriod     int     // ATR lookback for the trend envelope
	EnvelopeMultiplier float64 // band offset = multiplier * ATR
	PivotRadius        int     // centered pivot window = 2*radius+1
}

// DefaultParams returns the production defaults
func DefaultParams() Params {
	return Params{
		EnvelopePeriod:     10,
		EnvelopeMultiplier: 3.0,
		PivotRadius:        5,
	}
}

func (p Params) validate() error {
	if p.EnvelopePeriod <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "envelope period must be positive, got %d", p.EnvelopePeriod)
	}
	if p.EnvelopeMultiplier <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "envelope multiplier must be positive, got %f", p.EnvelopeMultiplier)
	}
	if p.PivotRadius <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "pivot radius must be positive, got %d", p.PivotRadius)
	}
	return nil
}

// MinBars returns the minimum series length for every rolling family to
// produce at least one defined sample.
func (p Params) MinBars() int {
	required := p.EnvelopePeriod + 1
	for _, v := range [...]int{
		oscillatorPeriod + 1,
		convSlowPeriod + convSignalPeriod - 1,
		2*p.PivotRadius + 1,
	} {
		if v > required {
			required = v
		}
	}
	return required
}

// Computed is a bar series annotated with aligned indicator values.
// All slices have the same length as Bars. PivotHigh and PivotLow hold
// NaN for bars without a full centered window; every other field is
// fully defined after the edge-fill pass.
type Computed struct {
	Bars       []market.Bar
	Envelope   []float64
	Direction  []int // +1 bullish / -1 bearish per bar
	Oscillator []float64
	ConvLine   []float64
	ConvSignal []float64
	PivotHigh  []float64
	PivotLow   []float64
}

// Len returns the number of bars in the computed series
func (c *Computed) Len() int {
	return len(c.Bars)
}

// Compute transforms an ordered bar series into an aligned indicator
// series. Deterministic and referentially transparent for identical
// input and parameters.
func Compute(bars []market.Bar, p Params) (*Computed, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := market.ValidateSeries(bars); err != nil {
		return nil, err
	}
	if len(bars) < p.MinBars() {
		return nil, errors.Wrapf(errors.ErrInsufficientData,
			"need at least %d bars, got %d", p.MinBars(), len(bars))
	}

	n := len(bars)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
	}

	atr := talib.Atr(high, low, closes, p.EnvelopePeriod)
	envelope, direction := superTrend(high, low, closes, atr, p.EnvelopePeriod, p.EnvelopeMultiplier)

	// The average-loss-zero case yields oscillator = 100, never an error.
	oscillator := talib.Rsi(closes, oscillatorPeriod)
	convLine, convSignal, _ := talib.Macd(closes, convFastPeriod, convSlowPeriod, convSignalPeriod)

	pivotHigh, pivotLow := rollingPivots(high, low, p.PivotRadius)

	c := &Computed{
		Bars:       bars,
		Envelope:   envelope,
		Direction:  direction,
		Oscillator: oscillator,
		ConvLine:   convLine,
		ConvSignal: convSignal,
		PivotHigh:  pivotHigh,
		PivotLow:   pivotLow,
	}
	c.fillEdges(p)

	for i := 0; i < n; i++ {
		if math.IsNaN(c.Envelope[i]) || math.IsNaN(c.Oscillator[i]) ||
			math.IsNaN(c.ConvLine[i]) || math.IsNaN(c.ConvSignal[i]) {
			return nil, errors.Wrapf(errors.ErrComputation, "non-finite indicator value at bar %d", i)
		}
	}
	return c, nil
}

// superTrend computes the volatility-banded trend envelope. The first
// valid sample sits at index period (first defined ATR); earlier entries
// are left for the edge-fill pass. Bands ratchet toward price and only
// reset on a flip, per the standard rule.
func superTrend(high, low, closes, atr []float64, period int, mult float64) ([]float64, []int) {
	n := len(closes)
	value := make([]float64, n)
	direction := make([]int, n)

	start := period
	prevUpper := (high[start]+low[start])/2 + mult*atr[start]
	prevLower := (high[start]+low[start])/2 - mult*atr[start]
	direction[start] = 1 // seed; settles after the first crossover
	value[start] = prevLower

	for i := start + 1; i < n; i++ {
		hl2 := (high[i] + low[i]) / 2
		upper := hl2 + mult*atr[i]
		lower := hl2 - mult*atr[i]

		finalUpper := prevUpper
		if upper < prevUpper || closes[i-1] > prevUpper {
			finalUpper = upper
		}
		finalLower := prevLower
		if lower > prevLower || closes[i-1] < prevLower {
			finalLower = lower
		}

		switch {
		case closes[i] > prevUpper:
			direction[i] = 1
		case closes[i] < prevLower:
			direction[i] = -1
		default:
			direction[i] = direction[i-1]
		}

		if direction[i] == 1 {
			value[i] = finalLower
		} else {
			value[i] = finalUpper
		}
		prevUpper, prevLower = finalUpper, finalLower
	}
	return value, direction
}

// rollingPivots computes the centered rolling max of highs and min of
// lows over a 2*radius+1 window. Bars without a full window get NaN.
func rollingPivots(high, low []float64, radius int) ([]float64, []float64) {
	n := len(high)
	pivotHigh := make([]float64, n)
	pivotLow := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < radius || i >= n-radius {
			pivotHigh[i] = math.NaN()
			pivotLow[i] = math.NaN()
			continue
		}
		maxHigh := high[i-radius]
		minLow := low[i-radius]
		for j := i - radius + 1; j <= i+radius; j++ {
			if high[j] > maxHigh {
				maxHigh = high[j]
			}
			if low[j] < minLow {
				minLow = low[j]
			}
		}
		pivotHigh[i] = maxHigh
		pivotLow[i] = minLow
	}
	return pivotHigh, pivotLow
}

// fillEdges propagates the nearest defined value into the warmup gaps
// left by the rolling computations (back-fill). The pivot columns keep
// their trailing gap: the most recent radius bars have no defined pivot
// by construction, and extrapolating one would fabricate a swing level.
func (c *Computed) fillEdges(p Params) {
	backfillFrom(c.Envelope, p.EnvelopePeriod)
	for i := 0; i < p.EnvelopePeriod && i < len(c.Direction); i++ {
		c.Direction[i] = c.Direction[p.EnvelopePeriod]
	}
	backfillFrom(c.Oscillator, oscillatorPeriod)
	// talib emits the line one bar before the smoothed signal
	backfillFrom(c.ConvLine, convSlowPeriod+convSignalPeriod-3)
	backfillFrom(c.ConvSignal, convSlowPeriod+convSignalPeriod-2)
	backfillFrom(c.PivotHigh, p.PivotRadius)
	backfillFrom(c.PivotLow, p.PivotRadius)
}

// backfillFrom copies the first defined sample into every slot before it
func backfillFrom(vals []float64, first int) {
	if first <= 0 || first >= len(vals) {
		return
	}
	for i := 0; i < first; i++ {
		vals[i] = vals[first]
	}
}

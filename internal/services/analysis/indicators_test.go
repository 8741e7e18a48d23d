package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confluence/internal/domain/market"
	"confluence/pkg/errors"
)

var testEpoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// barsFromCloses builds a valid hourly series with a constant 2-point
// range around each close, which keeps the true range (and therefore
// ATR) at exactly 2.0 for every bar.
func barsFromCloses(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Symbol:    "BTC/USDT",
			Timeframe: "1h",
			Timestamp: testEpoch.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

// steadyRise never crosses the lower band: the envelope stays bullish
// for the whole series.
func steadyRise(n int) []market.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 1000 + float64(i)
	}
	return barsFromCloses(closes)
}

// steadyDecline crosses the frozen lower band a few bars after the
// envelope seeds, and stays bearish to the end.
func steadyDecline(n int) []market.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 1000 - float64(i)
	}
	return barsFromCloses(closes)
}

// declineThenSpike is bearish until the final bar, where the close
// jumps above the ratcheted upper band. The direction flips bullish
// exactly on the last bar.
func declineThenSpike(n int) []market.Bar {
	closes := make([]float64, n)
	for i := 0; i < n-1; i++ {
		closes[i] = 1000 - float64(i)
	}
	closes[n-1] = closes[n-2] + 8
	return barsFromCloses(closes)
}

// riseThenCrash is the mirror image: bullish until the final bar,
// where the close drops below the ratcheted lower band.
func riseThenCrash(n int) []market.Bar {
	closes := make([]float64, n)
	for i := 0; i < n-1; i++ {
		closes[i] = 1000 + float64(i)
	}
	closes[n-1] = closes[n-2] - 8
	return barsFromCloses(closes)
}

func TestParams_MinBars(t *testing.T) {
	// With defaults the MACD family dominates: 26 + 9 - 1
	assert.Equal(t, 34, DefaultParams().MinBars())

	// A wide pivot window can dominate instead
	p := Params{EnvelopePeriod: 10, EnvelopeMultiplier: 3.0, PivotRadius: 25}
	assert.Equal(t, 51, p.MinBars())
}

func TestParams_Validate(t *testing.T) {
	_, err := Compute(steadyRise(60), Params{EnvelopePeriod: 0, EnvelopeMultiplier: 3.0, PivotRadius: 5})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = Compute(steadyRise(60), Params{EnvelopePeriod: 10, EnvelopeMultiplier: -1, PivotRadius: 5})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(steadyRise(33), DefaultParams())
	assert.ErrorIs(t, err, errors.ErrInsufficientData)

	_, err = Compute(steadyRise(2), DefaultParams())
	assert.ErrorIs(t, err, errors.ErrInsufficientData)

	_, err = Compute(nil, DefaultParams())
	assert.ErrorIs(t, err, errors.ErrInsufficientData)
}

func TestCompute_MalformedSeries(t *testing.T) {
	bars := steadyRise(60)
	bars[10].Timestamp = bars[9].Timestamp // not strictly increasing
	_, err := Compute(bars, DefaultParams())
	assert.ErrorIs(t, err, errors.ErrMalformedSeries)

	bars = steadyRise(60)
	bars[5].Close = -1
	_, err = Compute(bars, DefaultParams())
	assert.ErrorIs(t, err, errors.ErrMalformedSeries)

	bars = steadyRise(60)
	bars[20].High = bars[20].Low - 1 // OHLC invariant broken
	_, err = Compute(bars, DefaultParams())
	assert.ErrorIs(t, err, errors.ErrMalformedSeries)
}

func TestCompute_DirectionIsBinary(t *testing.T) {
	for _, bars := range [][]market.Bar{steadyRise(60), steadyDecline(60), declineThenSpike(60)} {
		c, err := Compute(bars, DefaultParams())
		require.NoError(t, err)
		for i, d := range c.Direction {
			assert.Contains(t, []int{1, -1}, d, "bar %d", i)
		}
	}
}

func TestCompute_UptrendStaysBullish(t *testing.T) {
	c, err := Compute(steadyRise(60), DefaultParams())
	require.NoError(t, err)

	for i, d := range c.Direction {
		assert.Equal(t, 1, d, "bar %d", i)
	}
	// Bullish envelope sits below price once seeded
	for i := DefaultParams().EnvelopePeriod; i < c.Len(); i++ {
		assert.Less(t, c.Envelope[i], c.Bars[i].Close, "bar %d", i)
	}
}

func TestCompute_DowntrendFlipsBearish(t *testing.T) {
	c, err := Compute(steadyDecline(60), DefaultParams())
	require.NoError(t, err)

	// The lower band freezes at the seed bar and the decline crosses it
	// seven bars later.
	assert.Equal(t, 1, c.Direction[16])
	assert.Equal(t, -1, c.Direction[17])
	for i := 17; i < c.Len(); i++ {
		assert.Equal(t, -1, c.Direction[i], "bar %d", i)
	}
	// Bearish envelope sits above price
	for i := 17; i < c.Len(); i++ {
		assert.Greater(t, c.Envelope[i], c.Bars[i].Close, "bar %d", i)
	}
}

func TestCompute_SpikeFlipsOnFinalBar(t *testing.T) {
	c, err := Compute(declineThenSpike(60), DefaultParams())
	require.NoError(t, err)

	n := c.Len()
	assert.Equal(t, -1, c.Direction[n-2])
	assert.Equal(t, 1, c.Direction[n-1])
}

func TestCompute_OscillatorBounds(t *testing.T) {
	c, err := Compute(steadyRise(60), DefaultParams())
	require.NoError(t, err)

	for i, v := range c.Oscillator {
		assert.GreaterOrEqual(t, v, 0.0, "bar %d", i)
		assert.LessOrEqual(t, v, 100.0, "bar %d", i)
	}
	// All gains and zero losses pins the oscillator at 100
	assert.InDelta(t, 100.0, c.Oscillator[c.Len()-1], 1e-9)

	c, err = Compute(steadyDecline(60), DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, c.Oscillator[c.Len()-1], 1e-9)
}

func TestCompute_PivotWindows(t *testing.T) {
	p := DefaultParams()
	c, err := Compute(steadyDecline(60), p)
	require.NoError(t, err)

	n := c.Len()

	// Centered max/min over the 11-bar window: on a monotone decline the
	// max high is at the left edge and the min low at the right edge.
	assert.InDelta(t, 996.0, c.PivotHigh[10], 1e-9) // close[5]+1
	assert.InDelta(t, 984.0, c.PivotLow[10], 1e-9)  // close[15]-1

	// Leading edge is backfilled from the first defined sample
	for i := 0; i < p.PivotRadius; i++ {
		assert.Equal(t, c.PivotHigh[p.PivotRadius], c.PivotHigh[i], "bar %d", i)
		assert.Equal(t, c.PivotLow[p.PivotRadius], c.PivotLow[i], "bar %d", i)
	}

	// Trailing edge stays undefined: no full centered window exists there
	for i := n - p.PivotRadius; i < n; i++ {
		assert.True(t, math.IsNaN(c.PivotHigh[i]), "bar %d", i)
		assert.True(t, math.IsNaN(c.PivotLow[i]), "bar %d", i)
	}
}

func TestCompute_AllSeriesAligned(t *testing.T) {
	c, err := Compute(steadyRise(60), DefaultParams())
	require.NoError(t, err)

	n := c.Len()
	assert.Equal(t, 60, n)
	for _, s := range [][]float64{c.Envelope, c.Oscillator, c.ConvLine, c.ConvSignal, c.PivotHigh, c.PivotLow} {
		assert.Len(t, s, n)
	}
	assert.Len(t, c.Direction, n)

	// Everything except the pivot tails is finite after edge fill
	for i := 0; i < n; i++ {
		assert.False(t, math.IsNaN(c.Envelope[i]), "envelope bar %d", i)
		assert.False(t, math.IsNaN(c.Oscillator[i]), "oscillator bar %d", i)
		assert.False(t, math.IsNaN(c.ConvLine[i]), "conv line bar %d", i)
		assert.False(t, math.IsNaN(c.ConvSignal[i]), "conv signal bar %d", i)
	}
}

func TestCompute_ConvLineWarmupPreserved(t *testing.T) {
	c, err := Compute(steadyRise(60), DefaultParams())
	require.NoError(t, err)

	lineFirst := convSlowPeriod + convSignalPeriod - 3
	signalFirst := convSlowPeriod + convSignalPeriod - 2

	// Leading gap is a flat copy of the first defined line sample
	for i := 0; i < lineFirst; i++ {
		assert.Equal(t, c.ConvLine[lineFirst], c.ConvLine[i], "bar %d", i)
	}

	// The line's first defined sample precedes the signal's and is real
	// output, not fill: on a linear rise the line is still converging
	// there, so consecutive samples cannot be equal.
	assert.NotEqual(t, c.ConvLine[lineFirst], c.ConvLine[signalFirst])

	for i := 0; i < signalFirst; i++ {
		assert.Equal(t, c.ConvSignal[signalFirst], c.ConvSignal[i], "bar %d", i)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	bars := declineThenSpike(60)
	a, err := Compute(bars, DefaultParams())
	require.NoError(t, err)
	b, err := Compute(bars, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, a.Envelope, b.Envelope)
	assert.Equal(t, a.Direction, b.Direction)
	assert.Equal(t, a.Oscillator, b.Oscillator)
	assert.Equal(t, a.ConvLine, b.ConvLine)
	assert.Equal(t, a.ConvSignal, b.ConvSignal)
}

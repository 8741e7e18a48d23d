package analysis

import (
	"math"
	"time"

	"github.com/google/uuid"

	"confluence/internal/domain/market"
	"confluence/internal/domain/signal"
	"confluence/pkg/errors"
	"confluence/pkg/logger"
)

const (
	// srLookback is how many recent bars feed the dynamic support and
	// resistance selection
	srLookback = 100

	// rewardRiskRatio fixes the raw take-profit distance at 2x the risk
	rewardRiskRatio = 2.0
)

// Engine runs the indicator computation across two timeframes and
// decides whether a tradable signal exists. Stateless across calls:
// every invocation owns its inputs and outputs exclusively.
type Engine struct {
	params Params
	log    *logger.Logger
}

// NewEngine creates a signal engine with the given indicator parameters
func NewEngine(params Params) *Engine {
	return &Engine{
		params: params,
		log:    logger.Get().With("component", "signal_engine"),
	}
}

// Analyze computes the higher-timeframe trend, the primary-timeframe
// indicator series and dynamic support/resistance, evaluates the
// envelope crossover gated by the higher trend, and assembles the
// result. A failure in either indicator computation aborts the whole
// call; no partial result is returned.
func (e *Engine) Analyze(symbol string, primary, higher []market.Bar) (*signal.AnalysisResult, error) {
	start := time.Now()

	higherComputed, err := Compute(higher, e.params)
	if err != nil {
		return nil, errors.Wrapf(err, "higher timeframe analysis for %s", symbol)
	}
	higherTrend := trendAt(higherComputed, higherComputed.Len()-1)

	primaryComputed, err := Compute(primary, e.params)
	if err != nil {
		return nil, errors.Wrapf(err, "primary timeframe analysis for %s", symbol)
	}

	support, resistance := supportResistance(primaryComputed)

	n := primaryComputed.Len()
	latest := primaryComputed.Bars[n-1]

	snapshot := signal.IndicatorSnapshot{
		Symbol:     symbol,
		Timestamp:  latest.Timestamp,
		Envelope:   primaryComputed.Envelope[n-1],
		Trend:      trendAt(primaryComputed, n-1),
		Oscillator: primaryComputed.Oscillator[n-1],
		ConvLine:   primaryComputed.ConvLine[n-1],
		ConvSignal: primaryComputed.ConvSignal[n-1],
		Support:    support,
		Resistance: resistance,
	}

	sig := e.evaluate(symbol, primaryComputed, support, resistance, higherTrend)

	return &signal.AnalysisResult{
		Symbol:      symbol,
		Bar:         latest,
		Snapshot:    snapshot,
		Signal:      sig,
		HigherTrend: higherTrend,
		Duration:    time.Since(start),
	}, nil
}

// evaluate applies the crossover state machine to the last two primary
// bars and gates the candidate by the higher-timeframe trend. A rejected
// candidate is a diagnostic record, not an error.
func (e *Engine) evaluate(symbol string, c *Computed, support, resistance *float64, higherTrend signal.TrendDirection) *signal.TradingSignal {
	n := c.Len()
	prev, curr := c.Direction[n-2], c.Direction[n-1]

	var kind signal.Kind
	switch {
	case prev == -1 && curr == 1:
		if higherTrend != signal.TrendBullish {
			e.log.Infow("BUY candidate rejected by higher timeframe trend",
				"symbol", symbol, "higher_trend", higherTrend.String())
			return nil
		}
		kind = signal.KindBuy
	case prev == 1 && curr == -1:
		if higherTrend != signal.TrendBearish {
			e.log.Infow("SELL candidate rejected by higher timeframe trend",
				"symbol", symbol, "higher_trend", higherTrend.String())
			return nil
		}
		kind = signal.KindSell
	default:
		return nil
	}

	latest := c.Bars[n-1]
	envelope := c.Envelope[n-1]
	entry, stopLoss, takeProfit := riskLevels(kind, latest.Close, envelope, support, resistance)

	e.log.Infow("Signal confirmed",
		"symbol", symbol, "kind", kind, "price", latest.Close,
		"entry", entry, "stop_loss", stopLoss, "take_profit", takeProfit)

	return &signal.TradingSignal{
		ID:         uuid.New(),
		Symbol:     symbol,
		Kind:       kind,
		Timestamp:  latest.Timestamp,
		Price:      latest.Close,
		Envelope:   envelope,
		Trend:      trendAt(c, n-1),
		Entry:      entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Support:    support,
		Resistance: resistance,
	}
}

// supportResistance selects, from the defined pivots of the most recent
// srLookback bars, the smallest pivot-high strictly above the current
// close and the largest pivot-low strictly below it.
func supportResistance(c *Computed) (support, resistance *float64) {
	n := c.Len()
	from := n - srLookback
	if from < 0 {
		from = 0
	}
	currentClose := c.Bars[n-1].Close

	for i := from; i < n; i++ {
		if h := c.PivotHigh[i]; !math.IsNaN(h) && h > currentClose {
			if resistance == nil || h < *resistance {
				v := h
				resistance = &v
			}
		}
		if l := c.PivotLow[i]; !math.IsNaN(l) && l < currentClose {
			if support == nil || l > *support {
				v := l
				support = &v
			}
		}
	}
	return support, resistance
}

// riskLevels derives entry, stop and target from the trigger bar. The
// envelope value at trigger is the initial stop; the raw 2:1 target is
// clamped to the nearest swing level when one sits inside it.
func riskLevels(kind signal.Kind, close, envelope float64, support, resistance *float64) (entry, stopLoss, takeProfit float64) {
	risk := math.Abs(close - envelope)
	entry = close
	stopLoss = envelope

	if kind == signal.KindBuy {
		takeProfit = close + rewardRiskRatio*risk
		if resistance != nil && *resistance > close && *resistance < takeProfit {
			takeProfit = *resistance
		}
	} else {
		takeProfit = close - rewardRiskRatio*risk
		if support != nil && *support < close && *support > takeProfit {
			takeProfit = *support
		}
	}
	return entry, stopLoss, takeProfit
}

func trendAt(c *Computed, i int) signal.TrendDirection {
	if c.Direction[i] >= 0 {
		return signal.TrendBullish
	}
	return signal.TrendBearish
}

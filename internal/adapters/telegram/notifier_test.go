package telegram

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"confluence/internal/domain/signal"
)

func testSignal() *signal.TradingSignal {
	support := 66500.0
	resistance := 69800.0
	higher := signal.TrendBullish
	return &signal.TradingSignal{
		ID:          uuid.New(),
		Symbol:      "BTC/USDT",
		Kind:        signal.KindBuy,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Price:       68050.5,
		Envelope:    67200.0,
		Trend:       signal.TrendBullish,
		HigherTrend: &higher,
		Entry:       68050.5,
		StopLoss:    67200.0,
		TakeProfit:  69751.5,
		Support:     &support,
		Resistance:  &resistance,
	}
}

func TestFormatSignal_Buy(t *testing.T) {
	text := FormatSignal(testSignal())

	assert.Contains(t, text, "🚀")
	assert.Contains(t, text, "<b>BUY BTC/USDT</b>")
	assert.Contains(t, text, "Price: <b>68,050.5</b>")
	assert.Contains(t, text, "Stop loss: 67,200")
	assert.Contains(t, text, "Take profit: 69,751.5")
	assert.Contains(t, text, "Trend: BULLISH | Higher TF: BULLISH")
	assert.Contains(t, text, "Support: 66,500")
	assert.Contains(t, text, "Resistance: 69,800")
	assert.Contains(t, text, "01-06-2025 12:00 UTC")
	assert.NotContains(t, text, "AI:")
}

func TestFormatSignal_Sell(t *testing.T) {
	sig := testSignal()
	sig.Kind = signal.KindSell
	sig.Trend = signal.TrendBearish

	text := FormatSignal(sig)
	assert.Contains(t, text, "🔴")
	assert.Contains(t, text, "<b>SELL BTC/USDT</b>")
	assert.Contains(t, text, "Trend: BEARISH")
}

func TestFormatSignal_WithConfirmation(t *testing.T) {
	sig := testSignal()
	sig.Annotate(signal.Confirmation{
		Conclusion: "BUY",
		Confidence: 85,
		Reasoning:  "momentum and trend aligned",
	})

	text := FormatSignal(sig)
	assert.Contains(t, text, "🧠 AI: BUY (confidence 85/100)")
	assert.Contains(t, text, "<i>momentum and trend aligned</i>")
}

func TestFormatSignal_OptionalFieldsOmitted(t *testing.T) {
	sig := testSignal()
	sig.HigherTrend = nil
	sig.Support = nil
	sig.Resistance = nil

	text := FormatSignal(sig)
	assert.NotContains(t, text, "Higher TF")
	assert.NotContains(t, text, "Support:")
	assert.NotContains(t, text, "Resistance:")
}

func TestFormatSignal_SubThousandPrices(t *testing.T) {
	sig := testSignal()
	sig.Price = 0.5234
	sig.Entry = 0.5234
	sig.StopLoss = 0.5
	sig.TakeProfit = 0.57

	text := FormatSignal(sig)
	assert.Contains(t, text, "Price: <b>0.5234</b>")
	assert.Contains(t, text, "Stop loss: 0.5")
}

func TestNewNotifier_RequiresCredentials(t *testing.T) {
	_, err := NewNotifier("", 123)
	assert.Error(t, err)

	_, err = NewNotifier("token", 0)
	assert.Error(t, err)
}

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confluence/internal/domain/signal"
)

func TestParseInsight_PlainJSON(t *testing.T) {
	conf, err := parseInsight(`{"conclusion": "BUY", "confidence": 82, "reasoning": "trend and momentum agree"}`)
	require.NoError(t, err)
	assert.Equal(t, "BUY", conf.Conclusion)
	assert.Equal(t, 82, conf.Confidence)
	assert.Equal(t, "trend and momentum agree", conf.Reasoning)
}

func TestParseInsight_MarkdownFenced(t *testing.T) {
	conf, err := parseInsight("```json\n{\"conclusion\": \"neutral\", \"confidence\": 50, \"reasoning\": \"mixed\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "NEUTRAL", conf.Conclusion)
	assert.Equal(t, 50, conf.Confidence)
}

func TestParseInsight_BareFence(t *testing.T) {
	conf, err := parseInsight("```\n{\"conclusion\": \"SELL\", \"confidence\": 71, \"reasoning\": \"\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "SELL", conf.Conclusion)
}

func TestParseInsight_Invalid(t *testing.T) {
	_, err := parseInsight("not json at all")
	assert.Error(t, err)

	_, err = parseInsight(`{"conclusion": "MAYBE", "confidence": 50}`)
	assert.Error(t, err)

	_, err = parseInsight(`{"conclusion": "BUY", "confidence": 120}`)
	assert.Error(t, err)

	_, err = parseInsight(`{"conclusion": "BUY", "confidence": -5}`)
	assert.Error(t, err)
}

func TestBuildPrompt_IncludesIndicatorState(t *testing.T) {
	support := 66500.0
	req := InsightRequest{
		Symbol: "BTC/USDT",
		Price:  68050.5,
		Kind:   signal.KindBuy,
		Snapshot: signal.IndicatorSnapshot{
			Envelope:   67200,
			Trend:      signal.TrendBullish,
			Oscillator: 61.2,
			ConvLine:   120.5,
			ConvSignal: 95.1,
			Support:    &support,
		},
		HigherTrend: signal.TrendBullish,
	}

	prompt := buildPrompt(req)
	assert.Contains(t, prompt, "BTC/USDT")
	assert.Contains(t, prompt, "Proposed signal: BUY")
	assert.Contains(t, prompt, "Higher timeframe trend: BULLISH")
	assert.Contains(t, prompt, "RSI(14): 61.20")
	assert.Contains(t, prompt, "Nearest support: 66500")
	assert.NotContains(t, prompt, "Nearest resistance")
}

func TestNewConfirmer_UnknownProvider(t *testing.T) {
	_, err := NewConfirmer(FactoryConfig{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestNewConfirmer_RequiresKey(t *testing.T) {
	_, err := NewConfirmer(FactoryConfig{Provider: ProviderOpenAI})
	assert.Error(t, err)
}

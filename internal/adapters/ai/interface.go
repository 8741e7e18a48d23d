package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"confluence/internal/domain/signal"
	"confluence/pkg/errors"
)

// ProviderName identifies a confirmation provider implementation
type ProviderName string

const (
	ProviderGemini ProviderName = "gemini"
	ProviderOpenAI ProviderName = "openai"
)

// InsightRequest carries everything a provider needs to judge confluence
// for a freshly produced signal.
type InsightRequest struct {
	Symbol      string
	Price       float64
	Kind        signal.Kind
	Snapshot    signal.IndicatorSnapshot
	HigherTrend signal.TrendDirection
}

// Confirmer is the downstream validation collaborator. It returns an
// opaque annotation the caller may use to accept or reject a signal
// before notifying; the signal engine itself never calls it.
type Confirmer interface {
	Name() string
	ConfluenceInsight(ctx context.Context, req InsightRequest) (*signal.Confirmation, error)
}

// buildPrompt renders the indicator state into the analysis prompt
// shared by all providers.
func buildPrompt(req InsightRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a technical analyst. Judge the confluence of the following state for %s.\n\n", req.Symbol)
	fmt.Fprintf(&b, "Current price: %.8g\n", req.Price)
	fmt.Fprintf(&b, "Proposed signal: %s\n", req.Kind)
	fmt.Fprintf(&b, "Trend envelope: %.8g (%s)\n", req.Snapshot.Envelope, req.Snapshot.Trend)
	fmt.Fprintf(&b, "Higher timeframe trend: %s\n", req.HigherTrend)
	fmt.Fprintf(&b, "RSI(14): %.2f\n", req.Snapshot.Oscillator)
	fmt.Fprintf(&b, "MACD line: %.8g, MACD signal: %.8g\n", req.Snapshot.ConvLine, req.Snapshot.ConvSignal)
	if req.Snapshot.Support != nil {
		fmt.Fprintf(&b, "Nearest support: %.8g\n", *req.Snapshot.Support)
	}
	if req.Snapshot.Resistance != nil {
		fmt.Fprintf(&b, "Nearest resistance: %.8g\n", *req.Snapshot.Resistance)
	}
	b.WriteString("\nRespond with a JSON object: {\"conclusion\": \"BUY\"|\"SELL\"|\"NEUTRAL\", \"confidence\": 0-100, \"reasoning\": \"one short paragraph\"}")
	return b.String()
}

type insightPayload struct {
	Conclusion string `json:"conclusion"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// parseInsight decodes a provider response, tolerating markdown fences
// around the JSON body.
func parseInsight(text string) (*signal.Confirmation, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}

	var payload insightPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, errors.Wrap(err, "decode insight response")
	}

	conclusion := strings.ToUpper(strings.TrimSpace(payload.Conclusion))
	switch conclusion {
	case "BUY", "SELL", "NEUTRAL":
	default:
		return nil, errors.Wrapf(errors.ErrInternal, "unexpected conclusion %q", payload.Conclusion)
	}
	if payload.Confidence < 0 || payload.Confidence > 100 {
		return nil, errors.Wrapf(errors.ErrInternal, "confidence %d out of range", payload.Confidence)
	}

	return &signal.Confirmation{
		Conclusion: conclusion,
		Confidence: payload.Confidence,
		Reasoning:  payload.Reasoning,
	}, nil
}

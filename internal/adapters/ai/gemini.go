package ai

import (
	"context"
	"time"

	"google.golang.org/genai"

	"confluence/internal/domain/signal"
	"confluence/pkg/errors"
	"confluence/pkg/logger"
)

const defaultGeminiModel = "gemini-1.5-flash"

// insightSchema constrains the Gemini response to the annotation shape
var insightSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"conclusion": {
			Type:        genai.TypeString,
			Enum:        []string{"BUY", "SELL", "NEUTRAL"},
			Description: "Directional conclusion supported by the indicator confluence",
		},
		"confidence": {
			Type:        genai.TypeInteger,
			Description: "Confidence in the conclusion, 0-100",
		},
		"reasoning": {
			Type:        genai.TypeString,
			Description: "One short paragraph explaining the conclusion",
		},
	},
	Required: []string{"conclusion", "confidence", "reasoning"},
}

// GeminiConfirmer validates signals via the Gemini API
type GeminiConfirmer struct {
	apiKey  string
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewGeminiConfirmer creates a Gemini-backed confirmation collaborator
func NewGeminiConfirmer(apiKey, model string, timeout time.Duration) (*GeminiConfirmer, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GeminiConfirmer{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		log:     logger.Get().With("component", "gemini_confirmer", "model", model),
	}, nil
}

// Name returns the provider name
func (g *GeminiConfirmer) Name() string { return string(ProviderGemini) }

// ConfluenceInsight asks Gemini to judge the indicator confluence behind
// a signal and returns the opaque annotation.
func (g *GeminiConfirmer) ConfluenceInsight(ctx context.Context, req InsightRequest) (*signal.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   insightSchema,
		Temperature:      genai.Ptr[float32](0.2),
	})
	if err != nil {
		return nil, errors.Wrap(err, "gemini API call failed")
	}

	insight, err := parseInsight(resp.Text())
	if err != nil {
		return nil, err
	}

	g.log.Debugw("Confluence insight received",
		"symbol", req.Symbol, "conclusion", insight.Conclusion, "confidence", insight.Confidence)
	return insight, nil
}

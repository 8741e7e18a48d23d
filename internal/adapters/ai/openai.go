package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"confluence/internal/domain/signal"
	"confluence/pkg/errors"
	"confluence/pkg/logger"
)

const confirmerSystemPrompt = "You are a technical analyst judging multi-indicator confluence. " +
	"Answer only with the requested JSON object, no prose around it."

// OpenAIConfirmer validates signals via OpenAI chat completions
type OpenAIConfirmer struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIConfirmer creates an OpenAI-backed confirmation collaborator
func NewOpenAIConfirmer(apiKey, model string, timeout time.Duration) (*OpenAIConfirmer, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIConfirmer{
		client:  client,
		model:   openai.ChatModel(model),
		timeout: timeout,
		log:     logger.Get().With("component", "openai_confirmer", "model", model),
	}, nil
}

// Name returns the provider name
func (o *OpenAIConfirmer) Name() string { return string(ProviderOpenAI) }

// ConfluenceInsight asks the chat model to judge the indicator
// confluence behind a signal and returns the opaque annotation.
func (o *OpenAIConfirmer) ConfluenceInsight(ctx context.Context, req InsightRequest) (*signal.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(confirmerSystemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "openai API call failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrInternal, "no completion choices returned")
	}

	insight, err := parseInsight(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	o.log.Debugw("Confluence insight received",
		"symbol", req.Symbol, "conclusion", insight.Conclusion, "confidence", insight.Confidence)
	return insight, nil
}

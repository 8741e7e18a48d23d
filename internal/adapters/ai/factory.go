package ai

import (
	"time"

	"confluence/pkg/errors"
)

// FactoryConfig selects and configures a confirmation provider
type FactoryConfig struct {
	Provider  ProviderName
	GeminiKey string
	OpenAIKey string
	Model     string // optional provider-specific model override
	Timeout   time.Duration
}

// NewConfirmer constructs the configured confirmation provider
func NewConfirmer(cfg FactoryConfig) (Confirmer, error) {
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiConfirmer(cfg.GeminiKey, cfg.Model, cfg.Timeout)
	case ProviderOpenAI:
		return NewOpenAIConfirmer(cfg.OpenAIKey, cfg.Model, cfg.Timeout)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", cfg.Provider)
	}
}

package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"confluence/pkg/errors"
)

type Config struct {
	App           AppConfig
	Trading       TradingConfig
	MarketData    MarketDataConfig
	AI            AIConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"confluence"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// TradingConfig holds the symbols, timeframes and indicator parameters
// driving the signal scanner
type TradingConfig struct {
	Pairs            []string `envconfig:"TRADING_PAIRS" default:"BTC/USDT,ETH/USDT,SOL/USDT"`
	PrimaryTimeframe string   `envconfig:"PRIMARY_TIMEFRAME" default:"1h"`
	HigherTimeframe  string   `envconfig:"HIGHER_TIMEFRAME" default:"4h"`
	OHLCVLimit       int      `envconfig:"OHLCV_LIMIT" default:"200"`

	EnvelopePeriod     int     `envconfig:"ENVELOPE_PERIOD" default:"10"`
	EnvelopeMultiplier float64 `envconfig:"ENVELOPE_MULTIPLIER" default:"3.0"`
	PivotRadius        int     `envconfig:"PIVOT_RADIUS" default:"5"`
}

type MarketDataConfig struct {
	BinanceAPIKey     string `envconfig:"BINANCE_API_KEY"`
	RequestsPerMinute int    `envconfig:"BINANCE_REQUESTS_PER_MINUTE" default:"600"`
}

type AIConfig struct {
	Enabled             bool          `envconfig:"AI_VALIDATION_ENABLED" default:"true"`
	Provider            string        `envconfig:"AI_PROVIDER" default:"gemini"`
	GeminiKey           string        `envconfig:"GEMINI_API_KEY"`
	OpenAIKey           string        `envconfig:"OPENAI_API_KEY"`
	Model               string        `envconfig:"AI_MODEL"`
	Timeout             time.Duration `envconfig:"AI_TIMEOUT" default:"30s"`
	ConfidenceThreshold int           `envconfig:"AI_CONFIDENCE_THRESHOLD" default:"70"`
}

type TelegramConfig struct {
	Enabled  bool   `envconfig:"NOTIFICATIONS_ENABLED" default:"true"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type WorkerConfig struct {
	ScanInterval   time.Duration `envconfig:"WORKER_SCAN_INTERVAL" default:"5m"`
	MaxConcurrency int           `envconfig:"WORKER_MAX_CONCURRENCY" default:"5"`
}

type MetricsConfig struct {
	Enabled    bool   `envconfig:"METRICS_ENABLED" default:"true"`
	ListenAddr string `envconfig:"METRICS_LISTEN_ADDR" default:":9090"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Trading.Pairs) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "TRADING_PAIRS must not be empty")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return errors.Wrap(errors.ErrInvalidInput, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when notifications are enabled")
	}
	if c.AI.Enabled {
		switch c.AI.Provider {
		case "gemini":
			if c.AI.GeminiKey == "" {
				return errors.Wrap(errors.ErrInvalidInput, "GEMINI_API_KEY is required when AI validation is enabled")
			}
		case "openai":
			if c.AI.OpenAIKey == "" {
				return errors.Wrap(errors.ErrInvalidInput, "OPENAI_API_KEY is required when AI validation is enabled")
			}
		default:
			return errors.Wrapf(errors.ErrInvalidInput, "unknown AI provider %q", c.AI.Provider)
		}
	}
	return nil
}

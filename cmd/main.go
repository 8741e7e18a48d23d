package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"confluence/internal/adapters/ai"
	"confluence/internal/adapters/config"
	"confluence/internal/adapters/errors/noop"
	"confluence/internal/adapters/errors/sentry"
	"confluence/internal/adapters/exchanges"
	"confluence/internal/adapters/exchanges/binance"
	"confluence/internal/adapters/telegram"
	"confluence/internal/metrics"
	"confluence/internal/services/analysis"
	"confluence/internal/workers"
	"confluence/pkg/errors"
	"confluence/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()
	metricsSrv := startMetricsServer(cfg, log)

	exchange := initExchange(cfg, log)
	engine := initEngine(cfg)
	confirmer := initConfirmer(cfg, log)
	notifier := initNotifier(cfg, log)

	scanner := workers.NewSignalScanner(workers.ScannerConfig{
		Pairs:               cfg.Trading.Pairs,
		PrimaryTimeframe:    cfg.Trading.PrimaryTimeframe,
		HigherTimeframe:     cfg.Trading.HigherTimeframe,
		OHLCVLimit:          cfg.Trading.OHLCVLimit,
		Interval:            cfg.Workers.ScanInterval,
		MaxConcurrency:      cfg.Workers.MaxConcurrency,
		AIEnabled:           cfg.AI.Enabled,
		ConfidenceThreshold: cfg.AI.ConfidenceThreshold,
		Enabled:             true,
	}, exchange, engine, confirmer, notifier)

	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(scanner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, metricsSrv, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// startMetricsServer exposes Prometheus metrics when enabled
func startMetricsServer(cfg *config.Config, log *logger.Logger) *http.Server {
	if !cfg.Metrics.Enabled {
		log.Info("Metrics disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:    cfg.Metrics.ListenAddr,
		Handler: mux,
	}

	go func() {
		log.Info("Metrics server listening", "addr", cfg.Metrics.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	return srv
}

func initExchange(cfg *config.Config, log *logger.Logger) exchanges.Exchange {
	exchange, err := binance.NewClient(binance.Config{
		APIKey:            cfg.MarketData.BinanceAPIKey,
		RequestsPerMinute: cfg.MarketData.RequestsPerMinute,
	})
	if err != nil {
		log.Fatalf("Failed to initialize exchange: %v", err)
	}
	return exchange
}

func initEngine(cfg *config.Config) *analysis.Engine {
	return analysis.NewEngine(analysis.Params{
		EnvelopePeriod:     cfg.Trading.EnvelopePeriod,
		EnvelopeMultiplier: cfg.Trading.EnvelopeMultiplier,
		PivotRadius:        cfg.Trading.PivotRadius,
	})
}

func initConfirmer(cfg *config.Config, log *logger.Logger) ai.Confirmer {
	if !cfg.AI.Enabled {
		log.Info("AI confirmation disabled")
		return nil
	}

	confirmer, err := ai.NewConfirmer(ai.FactoryConfig{
		Provider:  ai.ProviderName(cfg.AI.Provider),
		GeminiKey: cfg.AI.GeminiKey,
		OpenAIKey: cfg.AI.OpenAIKey,
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}

	log.Info("AI confirmation initialized", "provider", confirmer.Name())
	return confirmer
}

func initNotifier(cfg *config.Config, log *logger.Logger) workers.Notifier {
	if !cfg.Telegram.Enabled {
		log.Info("Notifications disabled")
		return nil
	}

	notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram notifier: %v", err)
	}
	return notifier
}

// waitForShutdown waits for a shutdown signal and performs graceful shutdown
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	scheduler *workers.Scheduler,
	metricsSrv *http.Server,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Metrics server shutdown: %v", err)
		}
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}

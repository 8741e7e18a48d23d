package workers

import (
	"context"
	"sync"
	"time"

	"confluence/internal/adapters/ai"
	"confluence/internal/adapters/exchanges"
	"confluence/internal/domain/signal"
	"confluence/internal/metrics"
	"confluence/internal/services/analysis"
	"confluence/pkg/errors"
)

// Notifier delivers produced signals and scan failures to an external
// channel
type Notifier interface {
	SendSignal(sig *signal.TradingSignal) error
	SendError(message string) error
}

// ScannerConfig holds the runtime knobs for the signal scanner
type ScannerConfig struct {
	Pairs            []string
	PrimaryTimeframe string
	HigherTimeframe  string
	OHLCVLimit       int
	Interval         time.Duration
	MaxConcurrency   int

	AIEnabled           bool
	ConfidenceThreshold int

	Enabled bool
}

// SignalScanner periodically fetches candles for every configured pair,
// runs the analysis engine and pushes qualifying signals through AI
// confirmation and notification. Pairs are scanned concurrently; one
// pair failing never aborts the others.
type SignalScanner struct {
	*BaseWorker
	cfg       ScannerConfig
	exchange  exchanges.Exchange
	engine    *analysis.Engine
	confirmer ai.Confirmer
	notifier  Notifier
}

// NewSignalScanner creates a new signal scanner worker.
// confirmer and notifier may be nil when the corresponding stages are disabled.
func NewSignalScanner(
	cfg ScannerConfig,
	exchange exchanges.Exchange,
	engine *analysis.Engine,
	confirmer ai.Confirmer,
	notifier Notifier,
) *SignalScanner {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}

	return &SignalScanner{
		BaseWorker: NewBaseWorker("signal_scanner", cfg.Interval, cfg.Enabled),
		cfg:        cfg,
		exchange:   exchange,
		engine:     engine,
		confirmer:  confirmer,
		notifier:   notifier,
	}
}

// Run executes one full scan across all configured pairs
func (sc *SignalScanner) Run(ctx context.Context) error {
	start := time.Now()
	sc.Log().Info("Starting market scan",
		"pairs", len(sc.cfg.Pairs),
		"max_concurrency", sc.cfg.MaxConcurrency,
	)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, sc.cfg.MaxConcurrency)
	errorsCh := make(chan error, len(sc.cfg.Pairs))

	for _, pair := range sc.cfg.Pairs {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := sc.scanSymbol(ctx, symbol); err != nil {
				errorsCh <- errors.Wrapf(err, "failed to scan %s", symbol)
			}
		}(pair)
	}

	wg.Wait()
	close(errorsCh)

	var scanErrors int
	for err := range errorsCh {
		scanErrors++
		sc.Log().Error("Symbol scan error", "error", err)
		sc.notifyError(err)
	}

	duration := time.Since(start)
	if scanErrors > 0 {
		err := errors.Newf("%d of %d symbols failed", scanErrors, len(sc.cfg.Pairs))
		sc.RecordError(err, duration)
		metrics.RecordWorkerExecution(sc.Name(), duration, err)
	} else {
		sc.RecordRun(duration)
		metrics.RecordWorkerExecution(sc.Name(), duration, nil)
	}

	sc.Log().Info("Market scan complete",
		"pairs", len(sc.cfg.Pairs),
		"errors", scanErrors,
		"duration", duration,
	)
	return nil
}

// scanSymbol runs the full pipeline for a single trading pair
func (sc *SignalScanner) scanSymbol(ctx context.Context, symbol string) error {
	primary, err := sc.exchange.GetOHLCV(ctx, symbol, sc.cfg.PrimaryTimeframe, sc.cfg.OHLCVLimit)
	if err != nil {
		metrics.ScanFailures.WithLabelValues(symbol, "fetch").Inc()
		return errors.Wrapf(err, "fetch %s candles", sc.cfg.PrimaryTimeframe)
	}

	higher, err := sc.exchange.GetOHLCV(ctx, symbol, sc.cfg.HigherTimeframe, sc.cfg.OHLCVLimit)
	if err != nil {
		metrics.ScanFailures.WithLabelValues(symbol, "fetch").Inc()
		return errors.Wrapf(err, "fetch %s candles", sc.cfg.HigherTimeframe)
	}

	result, err := sc.engine.Analyze(symbol, primary, higher)
	if err != nil {
		metrics.ScanFailures.WithLabelValues(symbol, "analysis").Inc()
		return errors.Wrap(err, "analysis failed")
	}

	if !result.HasSignal() {
		sc.Log().Debug("No signal", "symbol", symbol, "trend", result.Snapshot.Trend)
		return nil
	}

	sig := result.Signal
	higherTrend := result.HigherTrend
	sig.HigherTrend = &higherTrend
	metrics.SignalsDetected.WithLabelValues(symbol, string(sig.Kind)).Inc()

	sc.Log().Info("Signal detected",
		"symbol", symbol,
		"kind", sig.Kind,
		"price", sig.Price,
		"entry", sig.Entry,
		"stop_loss", sig.StopLoss,
		"take_profit", sig.TakeProfit,
	)

	if !sc.confirm(ctx, sig, result) {
		return nil
	}

	return sc.notify(sig)
}

// confirm runs AI validation when enabled. It reports whether the
// signal should proceed to notification. Provider failures are logged
// and treated as pass-through rather than dropping the signal.
func (sc *SignalScanner) confirm(ctx context.Context, sig *signal.TradingSignal, result *signal.AnalysisResult) bool {
	if !sc.cfg.AIEnabled || sc.confirmer == nil {
		return true
	}

	start := time.Now()
	conf, err := sc.confirmer.ConfluenceInsight(ctx, ai.InsightRequest{
		Symbol:      sig.Symbol,
		Price:       sig.Price,
		Kind:        sig.Kind,
		Snapshot:    result.Snapshot,
		HigherTrend: result.HigherTrend,
	})
	metrics.RecordAICall(sc.confirmer.Name(), time.Since(start), err)
	if err != nil {
		sc.Log().Warn("AI confirmation failed, passing signal through",
			"symbol", sig.Symbol,
			"provider", sc.confirmer.Name(),
			"error", err,
		)
		return true
	}

	sig.Annotate(*conf)

	if conf.Conclusion != string(sig.Kind) {
		sc.Log().Info("Signal rejected by AI confirmation",
			"symbol", sig.Symbol,
			"kind", sig.Kind,
			"conclusion", conf.Conclusion,
			"confidence", conf.Confidence,
		)
		metrics.SignalsRejected.WithLabelValues(sig.Symbol, "ai_contradiction").Inc()
		return false
	}

	if conf.Confidence < sc.cfg.ConfidenceThreshold {
		sc.Log().Info("Signal rejected by confidence threshold",
			"symbol", sig.Symbol,
			"confidence", conf.Confidence,
			"threshold", sc.cfg.ConfidenceThreshold,
		)
		metrics.SignalsRejected.WithLabelValues(sig.Symbol, "low_confidence").Inc()
		return false
	}

	return true
}

// notifyError reports a failed symbol scan to the notification channel.
// Delivery failures are logged only; the scan result already records
// the underlying error.
func (sc *SignalScanner) notifyError(scanErr error) {
	if sc.notifier == nil {
		return
	}

	err := sc.notifier.SendError(scanErr.Error())
	metrics.RecordNotification("telegram", err)
	if err != nil {
		sc.Log().Warn("Failed to send error notification", "error", err)
	}
}

// notify delivers the signal to the configured channel
func (sc *SignalScanner) notify(sig *signal.TradingSignal) error {
	if sc.notifier == nil {
		return nil
	}

	err := sc.notifier.SendSignal(sig)
	metrics.RecordNotification("telegram", err)
	if err != nil {
		return errors.Wrap(err, "send notification")
	}

	sc.Log().Info("Signal notification sent", "symbol", sig.Symbol, "kind", sig.Kind)
	return nil
}

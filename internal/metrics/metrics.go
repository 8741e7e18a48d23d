package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "confluence_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "confluence_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Exchange metrics
	ExchangeAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_exchange_api_calls_total",
			Help: "Total number of exchange API calls",
		},
		[]string{"exchange", "endpoint", "status"}, // status: success|error
	)

	ExchangeAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "confluence_exchange_api_latency_seconds",
			Help:    "Exchange API latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"exchange", "endpoint"},
	)

	// Signal metrics
	SignalsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_signals_detected_total",
			Help: "Total number of trading signals detected",
		},
		[]string{"symbol", "kind"}, // kind: BUY|SELL
	)

	SignalsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_signals_rejected_total",
			Help: "Total number of signals rejected before notification",
		},
		[]string{"symbol", "reason"}, // reason: low_confidence|ai_contradiction
	)

	ScanFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_scan_failures_total",
			Help: "Total number of per-symbol scan failures",
		},
		[]string{"symbol", "stage"}, // stage: fetch|analysis
	)

	// AI metrics
	AICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_ai_calls_total",
			Help: "Total number of AI confirmation calls",
		},
		[]string{"provider", "status"}, // status: success|error
	)

	AILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "confluence_ai_latency_seconds",
			Help:    "AI confirmation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// Notification metrics
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confluence_notifications_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"channel", "status"}, // status: success|error
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(ExchangeAPICalls)
	prometheus.MustRegister(ExchangeAPILatency)

	prometheus.MustRegister(SignalsDetected)
	prometheus.MustRegister(SignalsRejected)
	prometheus.MustRegister(ScanFailures)

	prometheus.MustRegister(AICalls)
	prometheus.MustRegister(AILatency)

	prometheus.MustRegister(NotificationsSent)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordExchangeAPICall records an exchange API call
func RecordExchangeAPICall(exchange, endpoint string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ExchangeAPICalls.WithLabelValues(exchange, endpoint, status).Inc()
	ExchangeAPILatency.WithLabelValues(exchange, endpoint).Observe(latency.Seconds())
}

// RecordAICall records an AI confirmation call
func RecordAICall(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	AICalls.WithLabelValues(provider, status).Inc()
	AILatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordNotification records a notification delivery attempt
func RecordNotification(channel string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	NotificationsSent.WithLabelValues(channel, status).Inc()
}

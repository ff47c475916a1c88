// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram

	// Decision metrics
	DecisionsTotal *prometheus.CounterVec
	StaleSignals   prometheus.Counter

	// Trade metrics
	TradesOpened  prometheus.Counter
	TradesClosed  *prometheus.CounterVec
	OpenPositions prometheus.Gauge
	RealizedPnL   prometheus.Gauge

	// Data metrics
	DataFetchErrors  *prometheus.CounterVec
	NewsItemsFetched prometheus.Counter

	// Notification metrics
	ReportsSent     prometheus.Counter
	ReportSendFails prometheus.Counter

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gold_trading_lab"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of evaluation cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Evaluation cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Total number of aggregated decisions by direction",
		}, []string{"direction"}),
		StaleSignals: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "stale_signals_total",
			Help:      "Total number of signals rejected for timestamp mismatch",
		}),

		TradesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_opened_total",
			Help:      "Total number of trades opened",
		}),
		TradesClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_closed_total",
			Help:      "Total number of trades closed by outcome",
		}, []string{"outcome"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		RealizedPnL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "realized_pnl",
			Help:      "Cumulative realized profit and loss",
		}),

		DataFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_errors_total",
			Help:      "Total number of market data fetch failures by kind",
		}, []string{"kind"}),
		NewsItemsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "news_items_fetched_total",
			Help:      "Total number of news items fetched",
		}),

		ReportsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "reports_sent_total",
			Help:      "Total number of reports handed to the notifier",
		}),
		ReportSendFails: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "report_send_failures_total",
			Help:      "Total number of report delivery failures",
		}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of the last completed evaluation cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records one evaluation cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordDecision increments the decision counter for the direction.
func RecordDecision(direction string) {
	DefaultMetrics.DecisionsTotal.WithLabelValues(direction).Inc()
}

// RecordTradeOpened increments the opened-trade counter and gauge.
func RecordTradeOpened() {
	DefaultMetrics.TradesOpened.Inc()
	DefaultMetrics.OpenPositions.Inc()
}

// RecordTradeClosed records a close with its outcome and realized pnl.
func RecordTradeClosed(outcome string, pnl float64) {
	DefaultMetrics.TradesClosed.WithLabelValues(outcome).Inc()
	DefaultMetrics.OpenPositions.Dec()
	DefaultMetrics.RealizedPnL.Add(pnl)
}

// RecordDataError records a market data failure.
func RecordDataError(kind string) {
	DefaultMetrics.DataFetchErrors.WithLabelValues(kind).Inc()
}

// RecordStaleSignal counts a signal rejected for timestamp mismatch.
func RecordStaleSignal() {
	DefaultMetrics.StaleSignals.Inc()
}

// RecordNewsFetched counts fetched news items.
func RecordNewsFetched(n int) {
	DefaultMetrics.NewsItemsFetched.Add(float64(n))
}

// RecordReportSent counts a report handed to the notifier backend.
func RecordReportSent() {
	DefaultMetrics.ReportsSent.Inc()
}

// RecordReportFailure counts a failed report delivery.
func RecordReportFailure() {
	DefaultMetrics.ReportSendFails.Inc()
}

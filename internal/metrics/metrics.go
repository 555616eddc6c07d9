// Package metrics provides centralized Prometheus metrics registry for the odds engine.
package metrics

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Namespace prefixes every metric name
const Namespace = "oddsedge"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_total",
		Help:      "Total number of engine runs by status",
	}, []string{"status"})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_requests_total",
		Help:      "Total number of odds provider requests by endpoint and status code",
	}, []string{"endpoint", "status"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	})
	UnitsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "units_skipped_total",
		Help:      "Total number of sports, events or rows skipped after a recoverable failure",
	}, []string{"unit"})
	QuotesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "quotes_ingested_total",
		Help:      "Total number of normalized quotes by sport",
	}, []string{"sport"})
	ExclusionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "exclusions_total",
		Help:      "Total number of intentional analysis exclusions by reason",
	}, []string{"reason"})
	RowsWrittenTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rows_written_total",
		Help:      "Total number of rows handled by the batch writer by table and outcome",
	}, []string{"table", "outcome"})
)

// Gauge metrics
var (
	ProviderRequestsRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "provider_requests_remaining",
		Help:      "Requests left in the provider quota as last reported",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed run",
	})
	MarketsPriced = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "markets_priced",
		Help:      "Markets with at least one fair probability in the last run",
	})
	EVCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "ev_candidates",
		Help:      "EV candidates found in the last run",
	})
	ArbitrageOpportunities = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "arbitrage_opportunities",
		Help:      "Arbitrage opportunities found in the last run",
	})
	BestExpectedValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "best_expected_value",
		Help:      "Highest expected value per reference stake in the last run",
	})
	BestArbitrageProfit = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "best_arbitrage_profit_percentage",
		Help:      "Highest arbitrage profit percentage in the last run",
	})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of engine runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of run stages in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Latency of odds provider requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(RunsTotal)
		registry.MustRegister(ProviderRequestsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(UnitsSkippedTotal)
		registry.MustRegister(QuotesIngestedTotal)
		registry.MustRegister(ExclusionsTotal)
		registry.MustRegister(RowsWrittenTotal)

		// Register gauge metrics
		registry.MustRegister(ProviderRequestsRemaining)
		registry.MustRegister(LastRunTimestamp)
		registry.MustRegister(MarketsPriced)
		registry.MustRegister(EVCandidates)
		registry.MustRegister(ArbitrageOpportunities)
		registry.MustRegister(BestExpectedValue)
		registry.MustRegister(BestArbitrageProfit)

		// Register histogram metrics
		registry.MustRegister(RunDuration)
		registry.MustRegister(StageDuration)
		registry.MustRegister(ProviderRequestDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// Push sends the registry to a Pushgateway. One-shot runs exit before a
// scrape could reach them.
func Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(GetRegistry()).PushContext(ctx)
}

// RecordRun records a finished run.
func RecordRun(status string, durationSeconds float64, finishedUnix float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(durationSeconds)
	LastRunTimestamp.Set(finishedUnix)
}

// RecordStage records the duration of one run stage.
func RecordStage(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordProviderRequest records one provider request.
func RecordProviderRequest(endpoint, status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// UpdateRequestsRemaining updates the provider quota gauge.
func UpdateRequestsRemaining(remaining int) {
	ProviderRequestsRemaining.Set(float64(remaining))
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordUnitSkipped records a skipped sport, event or row batch.
func RecordUnitSkipped(unit string) {
	UnitsSkippedTotal.WithLabelValues(unit).Inc()
}

// RecordQuotes records normalized quotes for a sport.
func RecordQuotes(sport string, count int) {
	QuotesIngestedTotal.WithLabelValues(sport).Add(float64(count))
}

// RecordExclusions records analysis exclusions by reason.
func RecordExclusions(byReason map[string]int) {
	for reason, n := range byReason {
		ExclusionsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordRowsWritten records batch writer outcomes for a table.
func RecordRowsWritten(table string, inserted int64, orphans, failed int) {
	RowsWrittenTotal.WithLabelValues(table, "inserted").Add(float64(inserted))
	RowsWrittenTotal.WithLabelValues(table, "orphan").Add(float64(orphans))
	RowsWrittenTotal.WithLabelValues(table, "failed").Add(float64(failed))
}

// UpdateAnalysis updates the per-run analysis gauges.
func UpdateAnalysis(priced, candidates, arbitrages int, bestEV, bestProfit float64) {
	MarketsPriced.Set(float64(priced))
	EVCandidates.Set(float64(candidates))
	ArbitrageOpportunities.Set(float64(arbitrages))
	BestExpectedValue.Set(bestEV)
	BestArbitrageProfit.Set(bestProfit)
}

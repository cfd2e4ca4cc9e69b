package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement outcomes used as the outcome label.
const (
	OutcomeCompleted   = "completed"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "failed"
	OutcomeAbandoned   = "abandoned"
	OutcomeUnavailable = "unavailable"
)

// CheckoutMetrics records settlement outcomes and latency.
type CheckoutMetrics struct {
	settlements     *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	receiptFailures prometheus.Counter
	receiptRetries  prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_settlements_total",
		Help: "Settlement attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_settlement_duration_seconds",
		Help:    "Duration of settlement attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	receiptFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_receipt_failures_total",
		Help: "Receipts that failed to render after a completed sale.",
	})
	receiptRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_receipt_number_retries_total",
		Help: "Receipt number collisions retried during persistence.",
	})
	reg.MustRegister(settlements, duration, receiptFailures, receiptRetries)
	return &CheckoutMetrics{
		settlements:     settlements,
		duration:        duration,
		receiptFailures: receiptFailures,
		receiptRetries:  receiptRetries,
	}
}

// ObserveSettlement counts one settlement attempt and records its latency.
func (m *CheckoutMetrics) ObserveSettlement(outcome string, elapsed time.Duration) {
	if m == nil || m.settlements == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.settlements.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *CheckoutMetrics) IncReceiptFailure() {
	if m == nil || m.receiptFailures == nil {
		return
	}
	m.receiptFailures.Inc()
}

func (m *CheckoutMetrics) IncReceiptNumberRetry() {
	if m == nil || m.receiptRetries == nil {
		return
	}
	m.receiptRetries.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

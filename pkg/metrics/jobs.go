package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics covers the maintenance worker: per-job outcomes plus the stock
// gauges refreshed by the low-stock audit.
type JobMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	lowStock   prometheus.Gauge
	outOfStock prometheus.Gauge
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockpos_job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpos_job_success_total",
		Help: "Successful maintenance job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpos_job_failure_total",
		Help: "Failed maintenance job executions.",
	}, []string{"job"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stockpos_low_stock_products",
		Help: "Products at or below their minimum stock at the last audit.",
	})
	outOfStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stockpos_out_of_stock_products",
		Help: "Products with zero stock at the last audit.",
	})
	reg.MustRegister(duration, success, failure, lowStock, outOfStock)
	return &JobMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		lowStock:   lowStock,
		outOfStock: outOfStock,
	}
}

func (m *JobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) SetStockLevels(low, out int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(low))
	m.outOfStock.Set(float64(out))
}

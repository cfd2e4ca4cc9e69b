package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.ObserveSettlement(OutcomeCompleted, 250*time.Millisecond)
	m.ObserveSettlement(OutcomeRejected, time.Millisecond)
	m.ObserveSettlement("", time.Millisecond)
	m.IncReceiptFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_settlements_total", "outcome", OutcomeCompleted); err != nil {
		t.Fatalf("fetch completed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected completed=1, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "checkout_settlements_total", "outcome", "unknown"); err != nil {
		t.Fatalf("expected empty outcome to be normalized: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "checkout_settlement_duration_seconds", "outcome", OutcomeCompleted); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if mf := findMetricFamily(mfs, "checkout_receipt_failures_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one receipt failure")
	}
}

func TestOutboxMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("sale_completed")
	m.IncPublished("sale_completed")
	m.IncFailed("low_stock")
	m.IncDeadLettered("low_stock", "max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_published_total", "event_type", "sale_completed"); err != nil || got != 2 {
		t.Fatalf("expected published=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_dead_lettered_total", "reason", "max_attempts"); err != nil || got != 1 {
		t.Fatalf("expected dead lettered=1, got %f (%v)", got, err)
	}
}

func TestJobMetricsRecordOutcomesAndStockGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.IncSuccess("outbox-retention")
	m.IncFailure("low-stock-audit")
	m.ObserveDuration("outbox-retention", 2*time.Second)
	m.SetStockLevels(4, 1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "stockpos_job_success_total", "job", "outbox-retention"); err != nil || got != 1 {
		t.Fatalf("expected success=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "stockpos_job_failure_total", "job", "low-stock-audit"); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f (%v)", got, err)
	}
	if mf := findMetricFamily(mfs, "stockpos_low_stock_products"); mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 4 {
		t.Fatalf("expected low stock gauge = 4")
	}
	if mf := findMetricFamily(mfs, "stockpos_out_of_stock_products"); mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 1 {
		t.Fatalf("expected out of stock gauge = 1")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCheckoutMetrics(nil).ObserveSettlement(OutcomeFailed, time.Second)
	NewCheckoutMetrics(nil).IncReceiptFailure()
	NewOutboxMetrics(nil).IncPublished("x")
	NewJobMetrics(nil).SetStockLevels(3, 1)
	NewServerMetrics(nil).Observe("/x", "GET", 200, time.Millisecond)
	var m *CheckoutMetrics
	m.IncReceiptNumberRetry()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

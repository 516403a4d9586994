package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCheckoutMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCheckoutMetrics(reg)

	metrics.Observe(CheckoutOutcomeCompleted, 20*time.Millisecond, 3)
	metrics.Observe(CheckoutOutcomeCompleted, 10*time.Millisecond, 1)
	metrics.Observe(CheckoutOutcomeInsufficientStock, 5*time.Millisecond, 2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	completed, err := fetchCounterValue(mfs, "tillcore_checkout_outcomes_total", "outcome", CheckoutOutcomeCompleted)
	if err != nil {
		t.Fatalf("fetch completed: %v", err)
	}
	if completed != 2 {
		t.Fatalf("expected 2 completed, got %f", completed)
	}
	short, err := fetchCounterValue(mfs, "tillcore_checkout_outcomes_total", "outcome", CheckoutOutcomeInsufficientStock)
	if err != nil {
		t.Fatalf("fetch insufficient: %v", err)
	}
	if short != 1 {
		t.Fatalf("expected 1 insufficient, got %f", short)
	}

	lines := findMetricFamily(mfs, "tillcore_checkout_lines")
	if lines == nil || lines.GetMetric()[0].GetHistogram().GetSampleCount() != 2 {
		t.Fatalf("expected lines histogram to only count completed checkouts")
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe(http.MethodPost, "/api/v1/checkout", http.StatusCreated, 15*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	got, err := fetchCounterValue(mfs, "tillcore_http_requests_total", "route", "/api/v1/checkout")
	if err != nil {
		t.Fatalf("fetch requests: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1 request, got %f", got)
	}
}

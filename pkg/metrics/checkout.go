package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	CheckoutOutcomeCompleted         = "completed"
	CheckoutOutcomeInsufficientStock = "insufficient_stock"
	CheckoutOutcomeUnknownProduct    = "unknown_product"
	CheckoutOutcomeBranchInactive    = "branch_inactive"
	CheckoutOutcomeRejected          = "rejected"
	CheckoutOutcomeFailed            = "failed"
)

// CheckoutMetrics tracks checkout attempts and their latency.
type CheckoutMetrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
	lines    prometheus.Histogram
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Checkout attempts partitioned by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Time spent inside the checkout critical section.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	lines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_lines",
		Help:      "Number of lines per completed checkout.",
		Buckets:   prometheus.LinearBuckets(1, 2, 10),
	})
	reg.MustRegister(outcomes, duration, lines)
	return &CheckoutMetrics{outcomes: outcomes, duration: duration, lines: lines}
}

// Observe records one checkout attempt.
func (c *CheckoutMetrics) Observe(outcome string, duration time.Duration, lineCount int) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	c.duration.Observe(duration.Seconds())
	if outcome == CheckoutOutcomeCompleted {
		c.lines.Observe(float64(lineCount))
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BudgetMetrics tracks budget conversions (PDF + email pipeline).
type BudgetMetrics struct {
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	jobs        *prometheus.CounterVec
}

// NewBudgetMetrics registers the conversion collectors.
func NewBudgetMetrics(reg prometheus.Registerer) *BudgetMetrics {
	if reg == nil {
		return &BudgetMetrics{}
	}
	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "budgets",
		Name:      "conversions_total",
		Help:      "Budget conversions by outcome and email status.",
	}, []string{"outcome", "email_status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "budgets",
		Name:      "conversion_duration_seconds",
		Help:      "Duration of the budget conversion pipeline.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"mode"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "budgets",
		Name:      "send_jobs_total",
		Help:      "Async send jobs by terminal status, or reused when a live job was returned.",
	}, []string{"status"})
	reg.MustRegister(conversions, duration, jobs)
	return &BudgetMetrics{conversions: conversions, duration: duration, jobs: jobs}
}

// ObserveConversion records one pipeline run.
func (m *BudgetMetrics) ObserveConversion(mode, outcome, emailStatus string, took time.Duration) {
	if m == nil || m.conversions == nil {
		return
	}
	m.conversions.WithLabelValues(normalizeLabel(outcome), normalizeLabel(emailStatus)).Inc()
	m.duration.WithLabelValues(normalizeLabel(mode)).Observe(took.Seconds())
}

// IncJob counts a send job outcome.
func (m *BudgetMetrics) IncJob(status string) {
	if m == nil || m.jobs == nil {
		return
	}
	m.jobs.WithLabelValues(normalizeLabel(status)).Inc()
}

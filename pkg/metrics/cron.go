package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vidrobox"

// CronJobMetrics tracks housekeeping runs. A nil *CronJobMetrics, or one
// built without a registerer, records nothing.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	affected    *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: "cron", Name: name, Help: help}
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Wall time of each cron job run.",
			Buckets:   []float64{.05, .25, 1, 5, 15, 60, 300, 600},
		}, []string{"job"}),
		runs:        prometheus.NewCounterVec(prometheus.CounterOpts(opts("job_runs_total", "Cron job runs by result.")), []string{"job", "result"}),
		affected:    prometheus.NewCounterVec(prometheus.CounterOpts(opts("rows_affected_total", "Rows purged or reset by cron jobs.")), []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts(opts("last_success_timestamp_seconds", "Unix time of the last successful run.")), []string{"job"}),
	}
	reg.MustRegister(m.duration, m.runs, m.affected, m.lastSuccess)
	return m
}

func (c *CronJobMetrics) enabled() bool {
	return c != nil && c.runs != nil
}

// ObserveRun records one finished run of job; err decides the result label.
func (c *CronJobMetrics) ObserveRun(job string, took time.Duration, err error) {
	if !c.enabled() {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, "failure").Inc()
		return
	}
	c.runs.WithLabelValues(job, "success").Inc()
	c.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// AddAffected counts rows a job purged or reset. Non-positive counts are ignored.
func (c *CronJobMetrics) AddAffected(job string, rows int64) {
	if !c.enabled() || rows <= 0 {
		return
	}
	c.affected.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

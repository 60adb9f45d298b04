package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		jobsTotal,
		jobPollAttempts,
		jobDurationSeconds,
	)
}

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_total",
			Help: "Generation jobs by vendor/model and terminal status.",
		},
		[]string{"vendor", "model", "status"},
	)

	jobPollAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_poll_attempts",
			Help:    "Status checks performed before a job resolved.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 60, 90, 120},
		},
		[]string{"vendor"},
	)

	jobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_job_duration_seconds",
			Help:    "Wall-clock time from submission to terminal status.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"vendor", "model"},
	)
)

func ObserveJob(vendor, model, status string, attempts int, elapsed time.Duration) {
	jobsTotal.WithLabelValues(norm(vendor), norm(model), norm(status)).Inc()
	jobPollAttempts.WithLabelValues(norm(vendor)).Observe(float64(attempts))
	jobDurationSeconds.WithLabelValues(norm(vendor), norm(model)).Observe(elapsed.Seconds())
}

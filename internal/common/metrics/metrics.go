// internal/common/metrics/metrics.go
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sales-assistant/internal/models"
)

var (
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_questions_total",
			Help: "Total number of questions answered, by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	QuestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sales_question_duration_seconds",
			Help:    "Time from question to answer in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"intent"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Job processing time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	LoaderRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sales_loader_rows_total",
			Help: "Rows read by the dataset loader, by disposition",
		},
		[]string{"disposition"},
	)
)

// Recorder feeds interpreter outcomes into the Prometheus collectors above.
type Recorder struct{}

func (Recorder) RecordAsk(_ context.Context, intent models.Intent, outcome string, duration time.Duration) {
	QuestionsTotal.WithLabelValues(string(intent), outcome).Inc()
	QuestionDuration.WithLabelValues(string(intent)).Observe(duration.Seconds())
}

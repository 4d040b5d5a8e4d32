package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Exam status transitions, labeled by target status
	ExamTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_exam_transitions_total",
			Help: "Total number of exam status transitions",
		},
		[]string{"to"}, // in_progress, completed
	)

	// Rejected lifecycle calls
	ExamRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_exam_rejections_total",
			Help: "Total number of rejected exam operations",
		},
		[]string{"op", "kind"}, // op: create/start/submit, kind: error kind
	)

	ExamSubmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_exam_submit_duration_seconds",
			Help:    "Time spent scoring and persisting a submission",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Updated by the overdue sweep
	ExamsOverdue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_exams_overdue",
			Help: "In-progress exams whose time window has elapsed",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

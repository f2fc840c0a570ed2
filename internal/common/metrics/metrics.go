// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search surfaces.
const (
	SurfaceHTTP   = "http"
	SurfaceWorker = "worker"
	SurfaceCLI    = "cli"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_search_requests_total",
			Help: "Similarity searches executed, by calling surface",
		},
		[]string{"surface"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_search_duration_seconds",
			Help:    "Similarity search latency including the candidate fetch",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"surface"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_search_results",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"surface"},
	)

	CandidateCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_candidate_cache_total",
			Help: "Candidate pool cache operations by result (hit, miss, stale, error)",
		},
		[]string{"result"},
	)

	ModerationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_moderation_transitions_total",
			Help: "Applied moderation transitions",
		},
		[]string{"action", "to"},
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// ObserveSearch records one completed similarity search.
func ObserveSearch(surface string, took time.Duration, results int) {
	SearchRequests.WithLabelValues(surface).Inc()
	SearchDuration.WithLabelValues(surface).Observe(took.Seconds())
	SearchResults.WithLabelValues(surface).Observe(float64(results))
}

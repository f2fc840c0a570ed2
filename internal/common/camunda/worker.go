// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"admission-stories/internal/common/config"
	"admission-stories/internal/common/errors"
	"admission-stories/internal/common/logger"
	"admission-stories/internal/common/metrics"
	"admission-stories/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
)

// JobHandler completes or fails the job itself and reports the outcome.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// Workers owns the job workers opened against one Zeebe client.
type Workers struct {
	client zbc.Client
	logger logger.Logger
	obs    *observability.Observability
	open   []worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger, obs *observability.Observability) *Workers {
	return &Workers{client: client, logger: log, obs: obs}
}

// Register opens a job worker for taskType unless it is disabled.
func (w *Workers) Register(taskType string, cfg config.WorkerConfig, handler JobHandler) bool {
	if !cfg.Enabled {
		w.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, w.obs)).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(config.GetDuration(cfg.Timeout)).
		Name(taskType).
		Open()

	w.open = append(w.open, jobWorker)
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": cfg.MaxJobsActive,
		"timeoutMs":     cfg.Timeout,
	})
	return true
}

// Count returns the number of open workers.
func (w *Workers) Count() int {
	return len(w.open)
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	for _, jw := range w.open {
		jw.Close()
		jw.AwaitClose()
	}
	w.open = nil
}

// Instrument adapts a JobHandler to the Zeebe handler signature and
// records job metrics around it.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		ctx, span := obs.StartSpan(context.Background(), "job "+taskType,
			attribute.String("task_type", taskType),
			attribute.Int64("job_key", job.Key),
			attribute.Int64("process_instance_key", job.ProcessInstanceKey),
		)

		start := time.Now()
		err := handler.Handle(client, job)
		took := time.Since(start)
		observability.EndSpan(span, err)

		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(took.Seconds())
		status := "completed"
		if err != nil {
			status = "failed"
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.Normalize(err).Code)).Inc()
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		obs.RecordJob(ctx, taskType, status, took)
	}
}

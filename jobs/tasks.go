package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/procuredesk/procuredesk/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup rebuilds the cached cancelled-items report after a
	// purchase mutation.
	TaskReportWarmup = "report:warmup"
	// TaskRecyclePurge permanently removes soft-deleted records past the
	// retention window.
	TaskRecyclePurge = "recycle:purge"
)

// ReportWarmupPayload identifies the purchase that triggered the warmup.
type ReportWarmupPayload struct {
	RefNum string `json:"refNum"`
}

// NewReportWarmupTask builds a warmup task.
func NewReportWarmupTask(refNum string) (*asynq.Task, error) {
	body, err := json.Marshal(ReportWarmupPayload{RefNum: refNum})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, body, asynq.Queue(QueueDefault)), nil
}

// ReportWarmer rebuilds report caches.
type ReportWarmer interface {
	WarmCancelledItems(ctx context.Context) error
}

// NewReportWarmupHandler returns the handler for TaskReportWarmup.
func NewReportWarmupHandler(warmer ReportWarmer, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReportWarmupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		err := warmer.WarmCancelledItems(ctx)
		metrics.ObserveJob(TaskReportWarmup, err)
		if err != nil {
			logger.Error("report warmup", slog.Any("error", err), slog.String("ref_num", payload.RefNum))
			return err
		}
		logger.Info("report warmup done", slog.String("ref_num", payload.RefNum))
		return nil
	}
}

// RecyclePurgePayload sets the retention window for the purge run.
type RecyclePurgePayload struct {
	RetainDays int `json:"retainDays"`
}

// NewRecyclePurgeTask builds a purge task, usually registered on a cron.
func NewRecyclePurgeTask(retainDays int) (*asynq.Task, error) {
	body, err := json.Marshal(RecyclePurgePayload{RetainDays: retainDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecyclePurge, body, asynq.Queue(QueueDefault)), nil
}

// RecyclePurger removes soft-deleted records older than the cutoff.
type RecyclePurger interface {
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewRecyclePurgeHandler returns the handler for TaskRecyclePurge.
func NewRecyclePurgeHandler(purger RecyclePurger, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RecyclePurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetainDays < 1 {
			payload.RetainDays = 30
		}
		cutoff := time.Now().AddDate(0, 0, -payload.RetainDays)
		purged, err := purger.PurgeDeletedBefore(ctx, cutoff)
		metrics.ObserveJob(TaskRecyclePurge, err)
		if err != nil {
			logger.Error("recycle purge", slog.Any("error", err))
			return err
		}
		logger.Info("recycle purge done", slog.Int64("purged", purged), slog.Time("cutoff", cutoff))
		return nil
	}
}

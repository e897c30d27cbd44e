package purchasing

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/procuredesk/procuredesk/internal/shared"
	"github.com/procuredesk/procuredesk/jobs"
)

// warmupQuietPeriod is how long after the last purchase mutation the
// report warmup task is enqueued. Bursts of saves collapse into one task.
const warmupQuietPeriod = 2 * time.Second

type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqEvents publishes purchase events onto the background queue.
type AsynqEvents struct {
	client   taskEnqueuer
	logger   *slog.Logger
	debounce *shared.Debouncer
}

// NewAsynqEvents returns an EventsPort backed by asynq.
func NewAsynqEvents(client *asynq.Client, logger *slog.Logger) *AsynqEvents {
	e := &AsynqEvents{client: client, logger: logger}
	e.debounce = shared.NewDebouncer(warmupQuietPeriod, e.enqueueWarmup)
	return e
}

// PurchaseSaved schedules a report warmup after a purchase mutation so
// the cancelled-items exports pick up the change. Consecutive saves
// within the quiet period debounce into a single task.
func (e *AsynqEvents) PurchaseSaved(_ context.Context, refNum string) error {
	e.debounce.Update(refNum)
	return nil
}

func (e *AsynqEvents) enqueueWarmup(refNum string) {
	task, err := jobs.NewReportWarmupTask(refNum)
	if err != nil {
		e.logger.Error("build report warmup task", slog.Any("error", err))
		return
	}
	if _, err := e.client.Enqueue(task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)); err != nil {
		e.logger.Error("enqueue report warmup", slog.Any("error", err))
	}
}

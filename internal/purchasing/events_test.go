package purchasing

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/procuredesk/procuredesk/internal/shared"
)

type countingEnqueuer struct {
	calls atomic.Int32
}

func (c *countingEnqueuer) Enqueue(_ *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	c.calls.Add(1)
	return &asynq.TaskInfo{}, nil
}

func TestPurchaseSavedDebouncesWarmups(t *testing.T) {
	enq := &countingEnqueuer{}
	events := &AsynqEvents{client: enq, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	events.debounce = shared.NewDebouncer(20*time.Millisecond, events.enqueueWarmup)
	defer events.debounce.Stop()

	ctx := context.Background()
	require.NoError(t, events.PurchaseSaved(ctx, "PO-1001"))
	require.NoError(t, events.PurchaseSaved(ctx, "PO-1001"))
	require.NoError(t, events.PurchaseSaved(ctx, "PO-1001"))

	require.Eventually(t, func() bool { return enq.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), enq.calls.Load())
}

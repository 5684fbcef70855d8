package jobs

import (
	"context"
	"fmt"

	"neighborguard/internal/domain/notifications"
	"neighborguard/internal/metrics"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
)

type NotifyCircleArgs struct {
	notifications.FanOut
}

func (NotifyCircleArgs) Kind() string { return JobKindNotifyCircle }

func (NotifyCircleArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: NotifyCircleMaxAttempts}
}

// NotifyCircleWorker ejecuta el fan-out fuera del request. Si falla, river reintenta.
type NotifyCircleWorker struct {
	river.WorkerDefaults[NotifyCircleArgs]

	notifier notifications.Notifier
	log      zerolog.Logger
}

func NewNotifyCircleWorker(notifier notifications.Notifier, log zerolog.Logger) *NotifyCircleWorker {
	return &NotifyCircleWorker{notifier: notifier, log: log}
}

func (w *NotifyCircleWorker) Work(ctx context.Context, job *river.Job[NotifyCircleArgs]) error {
	if job == nil {
		return fmt.Errorf("notify_circle job missing")
	}

	f := job.Args.FanOut
	if err := w.notifier.NotifyCircle(ctx, f); err != nil {
		metrics.FanOutFailures.WithLabelValues(string(f.Type), "queue").Inc()
		w.log.Warn().
			Err(err).
			Int64("job_id", job.ID).
			Int("attempt", job.Attempt).
			Str("circle_id", f.CircleID).
			Str("event_id", f.EventID).
			Msg("notify_circle failed")
		return err
	}
	return nil
}

// Inserter es el subconjunto de *river.Client que usa QueueNotifier.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// QueueNotifier implementa notifications.Notifier encolando un job en vez de escribir en línea.
type QueueNotifier struct {
	client Inserter
}

func NewQueueNotifier(client Inserter) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (q *QueueNotifier) NotifyCircle(ctx context.Context, f notifications.FanOut) error {
	if _, err := q.client.Insert(ctx, NotifyCircleArgs{FanOut: f}, nil); err != nil {
		return fmt.Errorf("enqueue notify_circle: %w", err)
	}
	metrics.JobsEnqueued.WithLabelValues(JobKindNotifyCircle).Inc()
	return nil
}

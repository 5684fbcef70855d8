package jobs

import (
	"context"
	"fmt"
	"math"
	"time"

	"neighborguard/internal/domain/notifications"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
)

const (
	JobKindNotifyCircle = "notify_circle"

	NotifyCircleMaxAttempts = 5
)

// RetryPolicy: backoff exponencial, con tope.
type RetryPolicy struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		BaseDelay: 10 * time.Second,
		MaxDelay:  10 * time.Minute,
	}
}

func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	attempt := job.Attempt
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}
	return time.Now().Add(delay)
}

func NewClientConfig(workers *river.Workers) *river.Config {
	policy := NewRetryPolicy()
	return &river.Config{
		Workers:     workers,
		RetryPolicy: policy,
		MaxAttempts: NotifyCircleMaxAttempts,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
	}
}

// NewClient arma el cliente river con el worker de fan-out registrado.
func NewClient(pool *pgxpool.Pool, notifier notifications.Notifier, log zerolog.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, NewNotifyCircleWorker(notifier, log)); err != nil {
		return nil, fmt.Errorf("register workers: %w", err)
	}
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers))
}

// MigrateRiver crea/actualiza las tablas propias de river.
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("river migrate: %w", err)
	}
	return nil
}

package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/sentinel-access/sentinel/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsCleanup is the task type purging expired sessions.
	TaskSessionsCleanup = "sessions:cleanup"
	// CronSessionsCleanup runs the purge hourly.
	CronSessionsCleanup = "0 * * * *"
)

// SessionPurger deletes sessions past their expiry.
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewSessionsCleanupTask constructs the cleanup task. It carries no payload.
func NewSessionsCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskSessionsCleanup, nil)
}

// HandleSessionsCleanup returns the handler processing TaskSessionsCleanup
// tasks against the given store. metrics may be nil.
func HandleSessionsCleanup(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track(TaskSessionsCleanup)
		purged, err := purger.DeleteExpired(ctx)
		if err != nil {
			return tracker.End(err)
		}
		metrics.AddPurgedSessions(purged)
		if logger != nil {
			logger.Info("expired sessions purged", slog.Int64("count", purged))
		}
		return tracker.End(nil)
	}
}

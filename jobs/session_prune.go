package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-hq/meridian/internal/jobs"
)

// SessionPruneJob removes login session rows whose expiry has passed.
type SessionPruneJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionPruneJob constructs the job handler.
func NewSessionPruneJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPruneJob {
	return &SessionPruneJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the session prune job.
func (j *SessionPruneJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("session prune: dependencies not configured")
	}
	var payload SessionPrunePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskSessionPrune)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now()
	tag, err := j.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		resultErr = err
		j.log().Error("prune sessions", slog.Any("error", err))
		return resultErr
	}

	removed := tag.RowsAffected()
	j.metrics().AddPruned(TaskSessionPrune, removed)
	j.log().Info("pruned expired sessions", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	return resultErr
}

func (j *SessionPruneJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *SessionPruneJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionPrune))
	}
	return slog.Default().With(slog.String("job", TaskSessionPrune))
}

func (j *SessionPruneJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

// WithClock overrides the internal clock for deterministic tests.
func (j *SessionPruneJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}

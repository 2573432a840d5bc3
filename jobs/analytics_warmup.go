package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/invoicer/invoicer/internal/jobs"
)

const defaultWarmupLookbackDays = 30

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer precomputes the cached dashboard of a user.
type Warmer interface {
	Warm(ctx context.Context, userID string) error
}

// ActiveUsers lists users with recent activity.
type ActiveUsers interface {
	ActiveSince(ctx context.Context, since time.Time) ([]string, error)
}

// AnalyticsWarmupJob pre-populates analytics caches for recently active users.
type AnalyticsWarmupJob struct {
	Analytics Warmer
	Users     ActiveUsers
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analytics Warmer, users ActiveUsers, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics: analytics,
		Users:     users,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analytics warmup tasks. A failing user is logged and
// skipped; the task fails only when the user lookup fails.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.LookbackDays <= 0 {
		payload.LookbackDays = defaultWarmupLookbackDays
	}

	tracker := j.metrics().Track(TaskAnalyticsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("lookback_days", payload.LookbackDays))
	start := j.now()

	users := payload.UserIDs
	if len(users) == 0 {
		if j.Users == nil {
			return errors.New("analytics warmup: user lookup not configured")
		}
		var err error
		users, err = j.Users.ActiveSince(ctx, start.AddDate(0, 0, -payload.LookbackDays))
		if err != nil {
			logger.Error("load active users", slog.Any("error", err))
			return err
		}
	}
	if len(users) == 0 {
		logger.Info("no active users to warm")
		return nil
	}

	warmed := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		userCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		err := j.Analytics.Warm(userCtx, userID)
		cancel()
		if err != nil {
			logger.Warn("warm user analytics", slog.String("user_id", userID), slog.Any("error", err))
			continue
		}
		warmed++
	}
	j.metrics().AddItems(TaskAnalyticsWarmup, warmed)
	logger.Info("completed analytics warmup", slog.Int("users", warmed), slog.Int("skipped", len(users)-warmed), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalyticsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

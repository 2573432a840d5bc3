package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/invoicer/invoicer/internal/jobs"
)

// LogoDeleter removes a stored logo object.
type LogoDeleter interface {
	DeleteLogo(ctx context.Context, key string) error
}

// LogoCleanupJob deletes logos that were replaced or never referenced.
type LogoCleanupJob struct {
	Store   LogoDeleter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLogoCleanupJob wires the object store for the cleanup handler.
func NewLogoCleanupJob(store LogoDeleter, logger *slog.Logger, metrics *jobmetrics.Metrics) *LogoCleanupJob {
	return &LogoCleanupJob{Store: store, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLogoDelete tasks.
func (j *LogoCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("logo cleanup: store not configured")
	}
	var payload LogoDeletePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || strings.TrimSpace(payload.Key) == "" {
		return fmt.Errorf("logo cleanup: bad payload: %w", asynq.SkipRetry)
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskLogoDelete)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if err := j.Store.DeleteLogo(ctx, payload.Key); err != nil {
		return err
	}
	metrics.AddItems(TaskLogoDelete, 1)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("deleted logo", slog.String("job", TaskLogoDelete), slog.String("key", payload.Key))
	return nil
}

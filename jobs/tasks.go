package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsWarmup precomputes dashboard caches for active users.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskLogoDelete removes a replaced or orphaned logo object.
	TaskLogoDelete = "storage:logo_delete"

	logoDeleteMaxRetry = 3
)

// AnalyticsWarmupPayload selects which users get their caches warmed.
type AnalyticsWarmupPayload struct {
	// LookbackDays limits warming to users active in that many days.
	LookbackDays int `json:"lookbackDays,omitempty"`
	// UserIDs, when set, replaces the activity lookup.
	UserIDs []string `json:"userIds,omitempty"`
}

// LogoDeletePayload names the object to remove.
type LogoDeletePayload struct {
	Key string `json:"key"`
}

// NewAnalyticsWarmupTask constructs an Asynq task.
func NewAnalyticsWarmupTask(payload AnalyticsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}

// NewLogoDeleteTask constructs an Asynq task for key.
func NewLogoDeleteTask(key string) (*asynq.Task, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("jobs: logo key required")
	}
	data, err := json.Marshal(LogoDeletePayload{Key: key})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLogoDelete, data, asynq.MaxRetry(logoDeleteMaxRetry)), nil
}

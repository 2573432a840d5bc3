package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/invoicer/invoicer/internal/jobs"
)

type fakeWarmer struct {
	warmed []string
	fail   map[string]error
}

func (f *fakeWarmer) Warm(_ context.Context, userID string) error {
	if err := f.fail[userID]; err != nil {
		return err
	}
	f.warmed = append(f.warmed, userID)
	return nil
}

type fakeUsers struct {
	ids   []string
	err   error
	since time.Time
}

func (f *fakeUsers) ActiveSince(_ context.Context, since time.Time) ([]string, error) {
	f.since = since
	return f.ids, f.err
}

type fakeDeleter struct {
	keys []string
	err  error
}

func (f *fakeDeleter) DeleteLogo(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

// ============================================================================
// ANALYTICS WARMUP
// ============================================================================

func TestAnalyticsWarmupUsesActiveUsers(t *testing.T) {
	now := time.Date(2026, time.October, 14, 2, 0, 0, 0, time.UTC)
	warmer := &fakeWarmer{fail: map[string]error{"u2": errors.New("redis down")}}
	users := &fakeUsers{ids: []string{"u1", "u2", "u3"}}
	job := NewAnalyticsWarmupJob(warmer, users, nil, testMetrics())
	job.clock = func() time.Time { return now }

	task, err := NewAnalyticsWarmupTask(AnalyticsWarmupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []string{"u1", "u3"}, warmer.warmed)
	assert.Equal(t, now.AddDate(0, 0, -30), users.since)
}

func TestAnalyticsWarmupExplicitUsers(t *testing.T) {
	warmer := &fakeWarmer{}
	users := &fakeUsers{err: errors.New("should not be called")}
	job := NewAnalyticsWarmupJob(warmer, users, nil, testMetrics())

	task, err := NewAnalyticsWarmupTask(AnalyticsWarmupPayload{UserIDs: []string{"u9"}})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"u9"}, warmer.warmed)
}

func TestAnalyticsWarmupLookupFailure(t *testing.T) {
	job := NewAnalyticsWarmupJob(&fakeWarmer{}, &fakeUsers{err: errors.New("db down")}, nil, testMetrics())
	task, err := NewAnalyticsWarmupTask(AnalyticsWarmupPayload{LookbackDays: 7})
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestAnalyticsWarmupBadPayload(t *testing.T) {
	job := NewAnalyticsWarmupJob(&fakeWarmer{}, &fakeUsers{}, nil, testMetrics())
	err := job.Handle(context.Background(), asynq.NewTask(TaskAnalyticsWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

// ============================================================================
// LOGO CLEANUP
// ============================================================================

func TestLogoCleanupDeletesKey(t *testing.T) {
	store := &fakeDeleter{}
	task, err := NewLogoDeleteTask(" logos/u1/a.png ")
	require.NoError(t, err)
	require.Equal(t, TaskLogoDelete, task.Type())

	require.NoError(t, NewLogoCleanupJob(store, nil, testMetrics()).Handle(context.Background(), task))
	assert.Equal(t, []string{"logos/u1/a.png"}, store.keys)
}

func TestLogoCleanupRetriesStoreErrors(t *testing.T) {
	store := &fakeDeleter{err: errors.New("timeout")}
	task, err := NewLogoDeleteTask("logos/u1/a.png")
	require.NoError(t, err)

	err = NewLogoCleanupJob(store, nil, testMetrics()).Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestLogoCleanupSkipsBadPayload(t *testing.T) {
	job := NewLogoCleanupJob(&fakeDeleter{}, nil, testMetrics())
	for _, payload := range []string{"not json", `{"key":"  "}`} {
		err := job.Handle(context.Background(), asynq.NewTask(TaskLogoDelete, []byte(payload)))
		assert.ErrorIs(t, err, asynq.SkipRetry, payload)
	}
	_, err := NewLogoDeleteTask("")
	assert.Error(t, err)
}

// ============================================================================
// CLIENT AND HANDLER
// ============================================================================

func TestClientEnqueueLogoDelete(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake}
	require.NoError(t, client.EnqueueLogoDelete(context.Background(), "logos/u1/b.webp"))
	require.Len(t, fake.tasks, 1)

	var payload LogoDeletePayload
	require.NoError(t, json.Unmarshal(fake.tasks[0].Payload(), &payload))
	assert.Equal(t, "logos/u1/b.webp", payload.Key)
}

func TestHandlerHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		code      int
		pending   int
	}{
		{"no inspector", nil, http.StatusOK, 0},
		{"queue info", fakeInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, http.StatusOK, 4},
		{"redis down", fakeInspector{err: errors.New("dial tcp")}, http.StatusServiceUnavailable, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.code, rec.Code)
			if tc.code != http.StatusOK {
				return
			}
			var body QueueHealth
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, QueueDefault, body.Queue)
			assert.Equal(t, tc.pending, body.Pending)
		})
	}
}

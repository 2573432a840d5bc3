package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/invoicer/internal/invoices"
)

type mockRepo struct {
	invoices     []Invoice
	clients      []Client
	invoiceErr   error
	clientErr    error
	invoiceCalls atomic.Int32
	clientCalls  atomic.Int32
}

func (m *mockRepo) Invoices(_ context.Context, _ string) ([]Invoice, error) {
	m.invoiceCalls.Add(1)
	return m.invoices, m.invoiceErr
}

func (m *mockRepo) Clients(_ context.Context, _ string) ([]Client, error) {
	m.clientCalls.Add(1)
	return m.clients, m.clientErr
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func newService(repo Repository, cache *Cache) *Service {
	return NewService(repo, cache, nil).WithClock(func() time.Time { return fixedNow })
}

func TestServiceReportCachesUntilInvalidated(t *testing.T) {
	cache, _ := newCache(t)
	repo := &mockRepo{invoices: []Invoice{inv("1", invoices.StatusPaid, "125.50", day(2026, time.October, 1))}}
	svc := newService(repo, cache)
	ctx := context.Background()

	first, err := svc.Report(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, Period12Months, first.Period)
	assert.InDelta(t, 125.5, first.KeyMetrics.TotalRevenue, 0.0001)

	repo.invoices = nil
	second, err := svc.Report(ctx, "user-1", "12months")
	require.NoError(t, err)
	assert.Equal(t, first.KeyMetrics, second.KeyMetrics)
	assert.EqualValues(t, 1, repo.invoiceCalls.Load())

	require.NoError(t, svc.Invalidate(ctx, "user-1"))
	third, err := svc.Report(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Zero(t, third.KeyMetrics.TotalRevenue)
	assert.EqualValues(t, 2, repo.invoiceCalls.Load())
}

func TestServiceInvalidateIsPerUser(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "user-2", "summary")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx, "user-1"))
	after, err := cache.BuildKey(ctx, "user-2", "summary")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "analytics:user-2:summary:v1", after)

	bumped, err := cache.BuildKey(ctx, "user-1", "summary")
	require.NoError(t, err)
	assert.Equal(t, "analytics:user-1:summary:v2", bumped)
}

func TestServiceRejectsUnknownPeriod(t *testing.T) {
	repo := &mockRepo{}
	_, err := newService(repo, nil).Report(context.Background(), "user-1", "decade")
	require.Error(t, err)
	assert.Zero(t, repo.invoiceCalls.Load())
}

func TestServiceLoadFailureIsNotCached(t *testing.T) {
	cache, mr := newCache(t)
	repo := &mockRepo{clientErr: errors.New("clients unavailable")}
	svc := newService(repo, cache)
	ctx := context.Background()

	_, err := svc.Summary(ctx, "user-1")
	require.Error(t, err)
	for _, key := range mr.Keys() {
		assert.NotContains(t, key, ":summary:")
	}

	repo.clientErr = nil
	repo.clients = []Client{{ID: "c"}}
	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalClients)
}

func TestServiceWithoutCache(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, nil)
	require.NoError(t, svc.Warm(context.Background(), "user-1"))
	require.NoError(t, svc.Invalidate(context.Background(), "user-1"))
	assert.EqualValues(t, 2, repo.invoiceCalls.Load())
}

func TestServiceWarmFillsCache(t *testing.T) {
	cache, mr := newCache(t)
	svc := newService(&mockRepo{}, cache)
	require.NoError(t, svc.Warm(context.Background(), "user-1"))

	key := "analytics:user-1:report:12months:" + fixedNow.Format(dayLayout) + ":v1"
	assert.True(t, mr.Exists(key), mr.Keys())
}

func TestCacheSharedLoadOutlivesCancelledCaller(t *testing.T) {
	cache, mr := newCache(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	loader := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
			return nil, err
		}
		return map[string]int{"count": 7}, nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		var out map[string]int
		firstDone <- cache.FetchJSON(firstCtx, "analytics:shared", &out, loader)
	}()
	<-started

	secondDone := make(chan error, 1)
	var second map[string]int
	go func() {
		secondDone <- cache.FetchJSON(context.Background(), "analytics:shared", &second, func(context.Context) (any, error) {
			return map[string]int{"count": 7}, nil
		})
	}()

	cancel()
	assert.ErrorIs(t, <-firstDone, context.Canceled)

	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, <-secondDone)
	assert.Equal(t, 7, second["count"])
	assert.Nil(t, loadErr.Load())
	assert.Eventually(t, func() bool { return mr.Exists("analytics:shared") }, time.Second, 10*time.Millisecond)
}

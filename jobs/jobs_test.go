package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/analytics"
	"github.com/odyssey-erp/stockroom/internal/inventory"
	jobmetrics "github.com/odyssey-erp/stockroom/internal/jobs"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCatalog struct {
	products []inventory.Product
	err      error
}

func (s stubCatalog) Snapshot(ctx context.Context) ([]inventory.Product, error) {
	return s.products, s.err
}

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(ctx context.Context) (analytics.Dashboard, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return analytics.Dashboard{}, errors.New("expected deadline")
	}
	return analytics.Dashboard{}, s.err
}

type stubCleaner struct {
	retention time.Duration
	removed   int64
}

func (s *stubCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.retention = olderThan
	return s.removed, nil
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t", Type: task.Type()}, r.err
}

func (r *recordingEnqueuer) Close() error { return nil }

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestLowStockScanUsesPayloadThreshold(t *testing.T) {
	catalog := stubCatalog{products: []inventory.Product{
		{ID: "a", Quantity: 0}, {ID: "b", Quantity: 3}, {ID: "c", Quantity: 9},
	}}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewLowStockScanJob(catalog, 0, quietLogger(), metrics)

	task, err := NewLowStockScanTask(10)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	task, err = NewLowStockScanTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestLowStockScanFailures(t *testing.T) {
	job := NewLowStockScanJob(stubCatalog{err: inventory.ErrStoreUnavailable}, 5, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewLowStockScanTask(0)
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), inventory.ErrStoreUnavailable)

	bad := asynq.NewTask(TaskLowStockScan, []byte("{"))
	require.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	var unset *LowStockScanJob
	require.Error(t, unset.Handle(context.Background(), bad))
}

func TestDashboardWarmup(t *testing.T) {
	refresher := &stubRefresher{}
	job := NewDashboardWarmupJob(refresher, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Reason: "stock_in", ProductID: "p"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 1, refresher.calls)

	refresher.err = errors.New("redis down")
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
}

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	cleaner := &stubCleaner{removed: 3}
	job := NewIdempotencyCleanupJob(cleaner, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	require.Equal(t, DefaultIdempotencyRetention, cleaner.retention)

	task, err := NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, time.Hour, cleaner.retention)
}

func TestClientEnqueuesWarmupOnCatalogChange(t *testing.T) {
	rec := &recordingEnqueuer{}
	client := &Client{client: rec, now: func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }}

	err := client.HandleCatalogChanged(context.Background(), inventory.CatalogChangedEvent{ProductID: "p-1", Action: inventory.ChangeStockOut})
	require.NoError(t, err)
	require.Len(t, rec.tasks, 1)
	require.Equal(t, TaskDashboardWarmup, rec.tasks[0].Type())

	var payload DashboardWarmupPayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &payload))
	require.Equal(t, "stock_out", payload.Reason)
	require.Equal(t, "p-1", payload.ProductID)
	require.False(t, payload.At.IsZero())

	rec.err = asynq.ErrDuplicateTask
	require.NoError(t, client.HandleCatalogChanged(context.Background(), inventory.CatalogChangedEvent{}))

	rec.err = errors.New("redis down")
	require.Error(t, client.HandleCatalogChanged(context.Background(), inventory.CatalogChangedEvent{}))
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	task, err := NewLowStockScanTask(0)
	require.NoError(t, err)
	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"},
		Logger:    quietLogger(),
		Cron:      []CronRegistration{{Spec: "not a cron", Task: task}},
	})
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		code      int
		body      string
	}{
		{name: "no inspector", code: http.StatusOK, body: `{"queue":"default","pending":0}`},
		{name: "queue info", inspector: stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4}}, code: http.StatusOK, body: `{"queue":"default","pending":4}`},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial")}, code: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, quietLogger()).MountRoutes)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.code, rr.Code)
			if tc.body != "" {
				require.JSONEq(t, tc.body, rr.Body.String())
			}
		})
	}
}

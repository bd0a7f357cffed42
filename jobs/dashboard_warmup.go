package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockroom/internal/analytics"
	jobmetrics "github.com/odyssey-erp/stockroom/internal/jobs"
)

// DashboardRefresher recomputes and stores the dashboard.
type DashboardRefresher interface {
	Refresh(ctx context.Context) (analytics.Dashboard, error)
}

// DashboardWarmupJob pre-populates the dashboard cache.
type DashboardWarmupJob struct {
	Dashboard DashboardRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboard DashboardRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: dashboard, Logger: logger, Metrics: metrics, Timeout: 20 * time.Second}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "scheduled"
	}

	tracker := metricsOrDefault(j.Metrics).Track(TaskDashboardWarmup)
	logger := jobLogger(j.Logger, TaskDashboardWarmup).With(slog.String("reason", payload.Reason))

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	d, err := j.Dashboard.Refresh(ctx)
	if err != nil {
		logger.Error("refresh dashboard", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed dashboard warmup",
		slog.Int("products", d.Summary.ProductCount),
		slog.Int("low_stock", len(d.LowStock)),
		slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

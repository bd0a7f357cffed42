package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/stockroom/internal/jobs"
)

// DefaultIdempotencyRetention keeps movement keys for a week.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// KeyCleaner removes idempotency keys older than a cutoff.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob prunes processed movement keys.
type IdempotencyCleanupJob struct {
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Keys: keys, Logger: logger, Metrics: metrics}
}

// Handle processes cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultIdempotencyRetention
	}

	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskIdempotencyCleanup)
	logger := jobLogger(j.Logger, TaskIdempotencyCleanup)

	removed, err := j.Keys.Cleanup(ctx, payload.Retention)
	if err != nil {
		logger.Error("cleanup idempotency keys", slog.Any("error", err))
		return tracker.End(err)
	}
	metrics.AddCleanedKeys(removed)
	logger.Info("completed idempotency cleanup", slog.Int64("removed", removed), slog.Duration("retention", payload.Retention))
	return tracker.End(nil)
}

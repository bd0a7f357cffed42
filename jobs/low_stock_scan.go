package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockroom/internal/inventory"
	jobmetrics "github.com/odyssey-erp/stockroom/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CatalogSnapshotter yields every stored product.
type CatalogSnapshotter interface {
	Snapshot(ctx context.Context) ([]inventory.Product, error)
}

// LowStockScanJob logs and gauges the products below threshold.
type LowStockScanJob struct {
	Catalog   CatalogSnapshotter
	Threshold int64
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(catalog CatalogSnapshotter, threshold int64, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Catalog: catalog, Threshold: threshold, Logger: logger, Metrics: metrics}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Catalog == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.Threshold
	}
	if threshold <= 0 {
		threshold = inventory.DefaultLowStockThreshold
	}

	metrics := metricsOrDefault(j.Metrics)
	tracker := metrics.Track(TaskLowStockScan)
	logger := jobLogger(j.Logger, TaskLowStockScan).With(slog.Int64("threshold", threshold))

	products, err := j.Catalog.Snapshot(ctx)
	if err != nil {
		logger.Error("load catalog", slog.Any("error", err))
		return tracker.End(err)
	}
	low := inventory.LowStock(products, threshold)
	metrics.SetLowStock(len(low))
	for _, p := range low {
		logger.Warn("low stock",
			slog.String("product_id", p.ID),
			slog.String("code", p.Code),
			slog.String("name", p.Name),
			slog.Int64("quantity", p.Quantity))
	}
	logger.Info("completed low stock scan", slog.Int("products", len(products)), slog.Int("low", len(low)))
	return tracker.End(nil)
}

func metricsOrDefault(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func jobLogger(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}

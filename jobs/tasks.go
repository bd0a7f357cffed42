package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan reports products below the low-stock threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskDashboardWarmup recomputes the cached dashboard.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup drops expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// LowStockScanPayload carries an optional threshold override.
type LowStockScanPayload struct {
	Threshold int64 `json:"threshold,omitempty"`
}

// DashboardWarmupPayload records why a warm-up was requested.
type DashboardWarmupPayload struct {
	Reason    string    `json:"reason"`
	ProductID string    `json:"product_id,omitempty"`
	At        time.Time `json:"at"`
}

// IdempotencyCleanupPayload configures the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewLowStockScanTask constructs the scan task.
func NewLowStockScanTask(threshold int64) (*asynq.Task, error) {
	return newTask(TaskLowStockScan, LowStockScanPayload{Threshold: threshold})
}

// NewDashboardWarmupTask constructs the warm-up task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	return newTask(TaskDashboardWarmup, payload)
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{Retention: retention})
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, body, asynq.Queue(QueueDefault)), nil
}

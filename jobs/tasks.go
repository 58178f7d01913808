package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskDeliveryOverdueScan counts overdue order items and refreshes cached listings.
	TaskDeliveryOverdueScan = "delivery:overdue-scan"
	// TaskSearchIndexOrder pushes one delivery order into the search index.
	TaskSearchIndexOrder = "search:index-delivery-order"
	// TaskSearchReindex rebuilds the search index from the database.
	TaskSearchReindex = "search:reindex"
	// TaskCacheBump retries a cache namespace invalidation that failed inline.
	TaskCacheBump = "cache:bump"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// OverdueScanPayload configures the overdue scan.
type OverdueScanPayload struct {
	// SkipBump leaves cached listings untouched.
	SkipBump bool `json:"skipBump,omitempty"`
}

// IndexOrderPayload names the order to index.
type IndexOrderPayload struct {
	OrderID string `json:"orderId"`
}

// ReindexPayload controls a full reindex.
type ReindexPayload struct {
	BatchSize int `json:"batchSize,omitempty"`
}

// CacheBumpPayload names the namespace to invalidate.
type CacheBumpPayload struct {
	Namespace string `json:"namespace"`
}

// IdempotencyCleanupPayload sets the key retention.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retentionHours,omitempty"`
}

// NewOverdueScanTask builds the overdue scan task.
func NewOverdueScanTask(skipBump bool) (*asynq.Task, error) {
	return newTask(TaskDeliveryOverdueScan, OverdueScanPayload{SkipBump: skipBump})
}

// NewIndexOrderTask builds the per-order indexing task.
func NewIndexOrderTask(orderID string) (*asynq.Task, error) {
	return newTask(TaskSearchIndexOrder, IndexOrderPayload{OrderID: orderID}, asynq.MaxRetry(5))
}

// NewReindexTask builds the full reindex task.
func NewReindexTask(batchSize int) (*asynq.Task, error) {
	return newTask(TaskSearchReindex, ReindexPayload{BatchSize: batchSize})
}

// NewCacheBumpTask builds the cache invalidation retry task.
func NewCacheBumpTask(namespace string) (*asynq.Task, error) {
	return newTask(TaskCacheBump, CacheBumpPayload{Namespace: namespace}, asynq.MaxRetry(10))
}

// NewIdempotencyCleanupTask builds the idempotency key purge task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{RetentionHours: retentionHours})
}

// TaskByName resolves an operator supplied name into a task with default
// options. Per-order indexing needs an argument and is not listed.
func TaskByName(name string) (*asynq.Task, bool, error) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "overdue-scan", TaskDeliveryOverdueScan:
		task, err := NewOverdueScanTask(false)
		return task, true, err
	case "reindex", TaskSearchReindex:
		task, err := NewReindexTask(0)
		return task, true, err
	case "idempotency-cleanup", TaskIdempotencyCleanup:
		task, err := NewIdempotencyCleanupTask(0)
		return task, true, err
	default:
		return nil, false, nil
	}
}

func newTask(typ string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Queue(QueueDefault)}, opts...)
	return asynq.NewTask(typ, body, opts...), nil
}

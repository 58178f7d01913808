package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/solutions-liquify/tms/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OverdueCounter counts undelivered order items past their due date.
type OverdueCounter interface {
	OverdueItemCount(ctx context.Context) (int, error)
}

// NamespaceBumper invalidates a cache namespace.
type NamespaceBumper interface {
	Bump(ctx context.Context, namespace string) error
}

// OverdueScanJob refreshes the overdue gauge. Item and section statuses are
// derived from the clock, so cached listings are invalidated on every run.
type OverdueScanJob struct {
	Orders    OverdueCounter
	Cache     NamespaceBumper
	Namespace string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewOverdueScanJob initialises the overdue scan handler.
func NewOverdueScanJob(orders OverdueCounter, cache NamespaceBumper, namespace string, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		Orders:    orders,
		Cache:     cache,
		Namespace: namespace,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Orders == nil {
		return errors.New("overdue scan: handler not configured")
	}
	var payload OverdueScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := j.now()
	tracker := j.metrics().Track(TaskDeliveryOverdueScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	count, err := j.Orders.OverdueItemCount(ctx)
	if err != nil {
		resultErr = err
		logger.Error("count overdue items failed", slog.Any("error", err))
		return resultErr
	}
	j.metrics().SetOverdueItems(count)
	if count > 0 {
		logger.Warn("overdue delivery order items", slog.Int("count", count))
	}

	if !payload.SkipBump && j.Cache != nil && j.Namespace != "" {
		if err := j.Cache.Bump(ctx, j.Namespace); err != nil {
			resultErr = err
			logger.Error("bump cache failed", slog.String("namespace", j.Namespace), slog.Any("error", err))
			return resultErr
		}
	}

	logger.Info("completed overdue scan",
		slog.Int("overdue", count),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDeliveryOverdueScan))
	}
	return slog.Default().With(slog.String("job", TaskDeliveryOverdueScan))
}

func (j *OverdueScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

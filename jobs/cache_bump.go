package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/solutions-liquify/tms/internal/jobs"
)

// CacheBumpJob retries namespace invalidations that failed on the request path.
type CacheBumpJob struct {
	Cache   NamespaceBumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheBumpJob wires the cache bump handler.
func NewCacheBumpJob(cache NamespaceBumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheBumpJob {
	return &CacheBumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle bumps the namespace named in the payload.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("cache bump: handler not configured")
	}
	var payload CacheBumpPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || strings.TrimSpace(payload.Namespace) == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCacheBump)
	err := j.Cache.Bump(ctx, payload.Namespace)
	if err != nil {
		j.logger().Error("bump cache failed", slog.String("namespace", payload.Namespace), slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *CacheBumpJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheBump))
	}
	return slog.Default().With(slog.String("job", TaskCacheBump))
}

func (j *CacheBumpJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

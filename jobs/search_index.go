package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	jobmetrics "github.com/solutions-liquify/tms/internal/jobs"
	"github.com/solutions-liquify/tms/internal/platform/search"
)

const defaultReindexBatch = 200

// OrderSource loads delivery orders for indexing.
type OrderSource interface {
	Get(ctx context.Context, id string) (*orders.DeliveryOrder, error)
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

// Indexer writes order documents.
type Indexer interface {
	EnsureIndex(ctx context.Context) error
	IndexOrder(ctx context.Context, doc search.OrderDocument) error
	DeleteOrder(ctx context.Context, id string) error
}

// SearchIndexJob handles per-order indexing and full reindex runs.
type SearchIndexJob struct {
	Orders  OrderSource
	Index   Indexer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSearchIndexJob wires the indexing handlers.
func NewSearchIndexJob(source OrderSource, index Indexer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SearchIndexJob {
	return &SearchIndexJob{Orders: source, Index: index, Logger: logger, Metrics: metrics}
}

// HandleIndexOrder indexes one order. A missing order removes its document.
func (j *SearchIndexJob) HandleIndexOrder(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Orders == nil || j.Index == nil {
		return errors.New("search index: handler not configured")
	}
	var payload IndexOrderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || strings.TrimSpace(payload.OrderID) == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskSearchIndexOrder)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskSearchIndexOrder).With(slog.String("order_id", payload.OrderID))
	resultErr = j.indexOne(ctx, payload.OrderID)
	if resultErr != nil {
		logger.Error("index delivery order failed", slog.Any("error", resultErr))
	}
	return resultErr
}

// HandleReindex walks every order id and rewrites its document.
func (j *SearchIndexJob) HandleReindex(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Orders == nil || j.Index == nil {
		return errors.New("search reindex: handler not configured")
	}
	var payload ReindexPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = defaultReindexBatch
	}

	start := time.Now()
	tracker := j.metrics().Track(TaskSearchReindex)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskSearchReindex)
	if err := j.Index.EnsureIndex(ctx); err != nil {
		resultErr = err
		logger.Error("ensure index failed", slog.Any("error", err))
		return resultErr
	}

	total := 0
	after := ""
	for {
		ids, err := j.Orders.ListIDs(ctx, after, payload.BatchSize)
		if err != nil {
			resultErr = err
			logger.Error("list order ids failed", slog.Any("error", err))
			return resultErr
		}
		for _, id := range ids {
			if err := j.indexOne(ctx, id); err != nil {
				resultErr = err
				logger.Error("index delivery order failed", slog.String("order_id", id), slog.Any("error", err))
				return resultErr
			}
			total++
		}
		if len(ids) < payload.BatchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	logger.Info("completed search reindex", slog.Int("orders", total), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *SearchIndexJob) indexOne(ctx context.Context, id string) error {
	order, err := j.Orders.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		if err := j.Index.DeleteOrder(ctx, id); err != nil {
			return err
		}
		j.metrics().AddIndexed("deleted", 1)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order %s: %w", id, err)
	}
	if err := j.Index.IndexOrder(ctx, OrderDocument(order)); err != nil {
		return err
	}
	j.metrics().AddIndexed("indexed", 1)
	return nil
}

// OrderDocument projects an order into its search document.
func OrderDocument(o *orders.DeliveryOrder) search.OrderDocument {
	districts := make(map[string]struct{})
	talukas := make(map[string]struct{})
	materials := make(map[string]struct{})
	for _, s := range o.Sections {
		districts[s.District] = struct{}{}
		for _, it := range s.Items {
			talukas[it.Taluka] = struct{}{}
			if it.MaterialName != "" {
				materials[it.MaterialName] = struct{}{}
			}
		}
	}
	return search.OrderDocument{
		ID:             o.ID,
		ContractID:     o.ContractID,
		PartyName:      o.PartyName,
		Status:         string(o.Status),
		Districts:      sortedKeys(districts),
		Talukas:        sortedKeys(talukas),
		Materials:      sortedKeys(materials),
		DateOfContract: o.DateOfContract,
		UpdatedAt:      o.UpdatedAt,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (j *SearchIndexJob) logger(task string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", task))
	}
	return slog.Default().With(slog.String("job", task))
}

func (j *SearchIndexJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

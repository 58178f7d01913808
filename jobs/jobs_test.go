package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	jobmetrics "github.com/solutions-liquify/tms/internal/jobs"
	"github.com/solutions-liquify/tms/internal/platform/cache"
	"github.com/solutions-liquify/tms/internal/platform/search"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCounter struct {
	count int
	err   error
}

func (s stubCounter) OverdueItemCount(context.Context) (int, error) { return s.count, s.err }

type recordingBumper struct {
	namespaces []string
	err        error
}

func (b *recordingBumper) Bump(_ context.Context, ns string) error {
	b.namespaces = append(b.namespaces, ns)
	return b.err
}

func TestTaskByName(t *testing.T) {
	task, ok, err := TaskByName("overdue-scan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TaskDeliveryOverdueScan, task.Type())

	task, ok, err = TaskByName(TaskSearchReindex)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TaskSearchReindex, task.Type())

	task, ok, err = TaskByName(" Idempotency-Cleanup ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TaskIdempotencyCleanup, task.Type())

	_, ok, err = TaskByName("index-everything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOverdueScanJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	bumper := &recordingBumper{}
	job := NewOverdueScanJob(stubCounter{count: 4}, bumper, "delivery", quietLogger(), metrics)

	task, err := NewOverdueScanTask(false)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"delivery"}, bumper.namespaces)

	assert.Equal(t, float64(4), gatheredValue(t, reg, "tms_delivery_overdue_items"))

	t.Run("skip bump", func(t *testing.T) {
		bumper.namespaces = nil
		task, err := NewOverdueScanTask(true)
		require.NoError(t, err)
		require.NoError(t, job.Handle(context.Background(), task))
		assert.Empty(t, bumper.namespaces)
	})

	t.Run("count failure", func(t *testing.T) {
		failing := NewOverdueScanJob(stubCounter{err: errors.New("db down")}, bumper, "delivery", quietLogger(), metrics)
		err := failing.Handle(context.Background(), asynq.NewTask(TaskDeliveryOverdueScan, nil))
		assert.Error(t, err)
	})

	t.Run("bad payload", func(t *testing.T) {
		err := job.Handle(context.Background(), asynq.NewTask(TaskDeliveryOverdueScan, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

type fakeOrderSource struct {
	orders map[string]*orders.DeliveryOrder
	ids    []string
}

func (f *fakeOrderSource) Get(_ context.Context, id string) (*orders.DeliveryOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderSource) ListIDs(_ context.Context, after string, limit int) ([]string, error) {
	var out []string
	for _, id := range f.ids {
		if id > after && len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeIndexer struct {
	ensured int
	docs    map[string]search.OrderDocument
	deleted []string
}

func (f *fakeIndexer) EnsureIndex(context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeIndexer) IndexOrder(_ context.Context, doc search.OrderDocument) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndexer) DeleteOrder(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func sampleOrder(id string) *orders.DeliveryOrder {
	return &orders.DeliveryOrder{
		ID:         id,
		ContractID: "CT-" + id,
		PartyName:  "Shree Agro",
		Status:     "pending",
		Sections: []orders.Section{
			{District: "Satara", Items: []orders.Item{{Taluka: "Karad", MaterialName: "Urea"}, {Taluka: "Wai", MaterialName: "Urea"}}},
			{District: "Pune", Items: []orders.Item{{Taluka: "Haveli", MaterialName: "DAP"}}},
		},
	}
}

func TestOrderDocument(t *testing.T) {
	doc := OrderDocument(sampleOrder("a"))
	assert.Equal(t, "a", doc.ID)
	assert.Equal(t, "CT-a", doc.ContractID)
	assert.Equal(t, []string{"Pune", "Satara"}, doc.Districts)
	assert.Equal(t, []string{"Haveli", "Karad", "Wai"}, doc.Talukas)
	assert.Equal(t, []string{"DAP", "Urea"}, doc.Materials)
}

func TestSearchIndexJob(t *testing.T) {
	source := &fakeOrderSource{
		orders: map[string]*orders.DeliveryOrder{"a": sampleOrder("a"), "b": sampleOrder("b"), "c": sampleOrder("c")},
		ids:    []string{"a", "b", "c"},
	}
	index := &fakeIndexer{docs: make(map[string]search.OrderDocument)}
	job := NewSearchIndexJob(source, index, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	t.Run("index one", func(t *testing.T) {
		task, err := NewIndexOrderTask("b")
		require.NoError(t, err)
		require.NoError(t, job.HandleIndexOrder(ctx, task))
		assert.Contains(t, index.docs, "b")
	})

	t.Run("missing order removes document", func(t *testing.T) {
		task, err := NewIndexOrderTask("zz")
		require.NoError(t, err)
		require.NoError(t, job.HandleIndexOrder(ctx, task))
		assert.Equal(t, []string{"zz"}, index.deleted)
	})

	t.Run("empty id is skipped", func(t *testing.T) {
		err := job.HandleIndexOrder(ctx, asynq.NewTask(TaskSearchIndexOrder, []byte(`{"orderId":" "}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("reindex pages through ids", func(t *testing.T) {
		index.docs = make(map[string]search.OrderDocument)
		task, err := NewReindexTask(2)
		require.NoError(t, err)
		require.NoError(t, job.HandleReindex(ctx, task))
		assert.Len(t, index.docs, 3)
		assert.Equal(t, 1, index.ensured)
	})
}

func TestCacheBumpJob(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	versioned := cache.NewVersioned(client, time.Minute)
	ctx := context.Background()

	before, err := versioned.Version(ctx, "delivery")
	require.NoError(t, err)

	job := NewCacheBumpJob(versioned, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewCacheBumpTask("delivery")
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))

	after, err := versioned.Version(ctx, "delivery")
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	body, _ := json.Marshal(CacheBumpPayload{})
	assert.ErrorIs(t, job.Handle(ctx, asynq.NewTask(TaskCacheBump, body)), asynq.SkipRetry)
}

type stubPurger struct {
	retention time.Duration
	removed   int64
	err       error
}

func (p *stubPurger) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	p.retention = olderThan
	return p.removed, p.err
}

func TestIdempotencyCleanupJob(t *testing.T) {
	purger := &stubPurger{removed: 7}
	job := NewIdempotencyCleanupJob(purger, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))
	assert.Equal(t, 48*time.Hour, purger.retention)

	task, err = NewIdempotencyCleanupTask(6)
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))
	assert.Equal(t, 6*time.Hour, purger.retention)

	purger.err = errors.New("db down")
	assert.Error(t, job.Handle(ctx, task))

	assert.ErrorIs(t, job.Handle(ctx, asynq.NewTask(TaskIdempotencyCleanup, []byte("nope"))), asynq.SkipRetry)
}

func TestTrackerCountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	job := NewCacheBumpJob(&recordingBumper{err: errors.New("redis down")}, quietLogger(), metrics)
	task, err := NewCacheBumpTask("delivery")
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))

	assert.Equal(t, float64(1), gatheredValue(t, reg, "tms_jobs_failures_total"))
}

func gatheredValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		m := f.GetMetric()[0]
		if m.GetGauge() != nil {
			return m.GetGauge().GetValue()
		}
		return m.GetCounter().GetValue()
	}
	return 0
}

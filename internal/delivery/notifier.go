package delivery

import (
	"context"
	"log/slog"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
)

// Enqueuer schedules delivery background work.
type Enqueuer interface {
	EnqueueIndexOrder(ctx context.Context, orderID string) error
	EnqueueCacheBump(ctx context.Context, namespace string) error
}

// Bumper invalidates a cache namespace.
type Bumper interface {
	Bump(ctx context.Context, namespace string) error
}

// Notifier runs after every committed order or challan change. It never
// fails the caller: a failed cache bump is handed to the worker instead.
type Notifier struct {
	cache  Bumper
	queue  Enqueuer
	logger *slog.Logger
}

// NewNotifier constructs the notifier. Both cache and queue may be nil.
func NewNotifier(cache Bumper, queue Enqueuer, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cache: cache, queue: queue, logger: logger}
}

// OrderChanged implements orders.ChangeNotifier.
func (n *Notifier) OrderChanged(ctx context.Context, orderID string) {
	if n.cache != nil {
		if err := n.cache.Bump(ctx, orders.CacheNamespace); err != nil {
			n.logger.Warn("bump delivery cache failed", slog.Any("error", err), slog.String("order_id", orderID))
			if n.queue != nil {
				if err := n.queue.EnqueueCacheBump(ctx, orders.CacheNamespace); err != nil {
					n.logger.Error("enqueue cache bump failed", slog.Any("error", err))
				}
			}
		}
	}
	if n.queue != nil {
		if err := n.queue.EnqueueIndexOrder(ctx, orderID); err != nil {
			n.logger.Error("enqueue search index failed", slog.Any("error", err), slog.String("order_id", orderID))
		}
	}
}

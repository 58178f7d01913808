package shared

import (
	"context"
	"log/slog"
)

// Bumper invalidates a cache namespace.
type Bumper interface {
	Bump(ctx context.Context, namespace string) error
}

// Invalidator bumps the cache namespaces whose listings embed master data
// names. A failed bump is logged; the write has already committed.
type Invalidator struct {
	cache      Bumper
	namespaces []string
	logger     *slog.Logger
}

// NewInvalidator constructs an invalidator. A nil cache makes Fire a no-op.
func NewInvalidator(cache Bumper, logger *slog.Logger, namespaces ...string) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{cache: cache, namespaces: namespaces, logger: logger}
}

// Fire bumps every configured namespace.
func (i *Invalidator) Fire(ctx context.Context) {
	if i == nil || i.cache == nil {
		return
	}
	for _, ns := range i.namespaces {
		if err := i.cache.Bump(ctx, ns); err != nil {
			i.logger.Warn("bump cache failed", slog.String("namespace", ns), slog.Any("error", err))
		}
	}
}

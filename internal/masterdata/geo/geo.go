// Package geo serves the state, district, taluka and city lookups used by
// address pickers and order sections.
package geo

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/cases"

	"github.com/solutions-liquify/tms/internal/platform/cache"
)

// CacheNamespace versions every cached lookup.
const CacheNamespace = "geo"

// Repository reads the reference table. Empty parent lists mean no filter.
type Repository interface {
	States(ctx context.Context) ([]string, error)
	Districts(ctx context.Context, states []string) ([]string, error)
	Talukas(ctx context.Context, districts []string) ([]string, error)
	Cities(ctx context.Context, states []string) ([]string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository over geo_places.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) States(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "state", "", nil)
}

func (r *repository) Districts(ctx context.Context, states []string) ([]string, error) {
	return r.distinct(ctx, "district", "state", states)
}

func (r *repository) Talukas(ctx context.Context, districts []string) ([]string, error) {
	return r.distinct(ctx, "taluka", "district", districts)
}

func (r *repository) Cities(ctx context.Context, states []string) ([]string, error) {
	return r.distinct(ctx, "city", "state", states)
}

// distinct lists the non-empty values of column, optionally restricted to
// rows whose parent column matches one of parents case-insensitively.
func (r *repository) distinct(ctx context.Context, column, parent string, parents []string) ([]string, error) {
	query := `SELECT DISTINCT ` + column + ` FROM geo_places WHERE ` + column + ` <> ''`
	var args []any
	if parent != "" && len(parents) > 0 {
		folded := make([]string, len(parents))
		for i, p := range parents {
			folded[i] = strings.ToLower(strings.TrimSpace(p))
		}
		query += ` AND LOWER(` + parent + `) = ANY($1)`
		args = append(args, folded)
	}
	query += ` ORDER BY ` + column
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", column, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", column, err)
	}
	return values, nil
}

// Service caches lookups in the versioned cache.
type Service struct {
	repo  Repository
	cache *cache.Versioned
}

// NewService creates the service. A nil cache reads through every time.
func NewService(repo Repository, c *cache.Versioned) *Service {
	return &Service{repo: repo, cache: c}
}

// States lists every state.
func (s *Service) States(ctx context.Context) ([]string, error) {
	return s.cached(ctx, "states", nil, func(ctx context.Context) ([]string, error) {
		return s.repo.States(ctx)
	})
}

// Districts lists the districts of the given states.
func (s *Service) Districts(ctx context.Context, states []string) ([]string, error) {
	return s.cached(ctx, "districts", states, func(ctx context.Context) ([]string, error) {
		return s.repo.Districts(ctx, states)
	})
}

// Talukas lists the talukas of the given districts.
func (s *Service) Talukas(ctx context.Context, districts []string) ([]string, error) {
	return s.cached(ctx, "talukas", districts, func(ctx context.Context) ([]string, error) {
		return s.repo.Talukas(ctx, districts)
	})
}

// Cities lists the cities of the given states.
func (s *Service) Cities(ctx context.Context, states []string) ([]string, error) {
	return s.cached(ctx, "cities", states, func(ctx context.Context) ([]string, error) {
		return s.repo.Cities(ctx, states)
	})
}

// Invalidate drops every cached lookup after the reference table changes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx, CacheNamespace)
}

func (s *Service) cached(ctx context.Context, kind string, parents []string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	key, err := s.cache.BuildKey(ctx, CacheNamespace, kind, parentsKey(parents))
	if err != nil {
		return nil, fmt.Errorf("build geo cache key: %w", err)
	}
	var out []string
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		values, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if values == nil {
			values = []string{}
		}
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parentsKey is stable across ordering, case and duplicates.
func parentsKey(parents []string) string {
	if len(parents) == 0 {
		return "all"
	}
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(parents))
	norm := make([]string, 0, len(parents))
	for _, p := range parents {
		p = folder.String(strings.TrimSpace(p))
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		norm = append(norm, p)
	}
	sort.Strings(norm)
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(norm, "\x00")))
	return fmt.Sprintf("%x", h.Sum64())
}

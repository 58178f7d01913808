package materials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/db"
)

// Repository defines material persistence.
type Repository interface {
	Get(ctx context.Context, id string) (*Material, error)
	List(ctx context.Context, req ListRequest, limit, offset int) ([]Material, int, error)
	Insert(ctx context.Context, m *Material) error
	Update(ctx context.Context, m *Material) error
	SetStatus(ctx context.Context, id string, status shared.Status, updatedAt int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id::text, name, unit, status, created_at, updated_at`

func scan(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Material, error) {
	m, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM materials WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

func (r *repository) List(ctx context.Context, req ListRequest, limit, offset int) ([]Material, int, error) {
	var f shared.Filter
	f.Search(req.Search, "name", "unit")
	f.Statuses("status", shared.Scope(req.Statuses, req.GetAll))

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials`+f.SQL(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}
	query := `SELECT ` + columns + ` FROM materials` + f.SQL() + ` ORDER BY name ASC, id ASC`
	args := f.Args()
	if limit > 0 {
		var page string
		page, args = f.Page(limit, offset)
		query += page
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	out := make([]Material, 0)
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, m *Material) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO materials (id, name, unit, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.Name, m.Unit, string(m.Status), m.CreatedAt, m.UpdatedAt)
	return mapWriteError("insert material", err)
}

func (r *repository) Update(ctx context.Context, m *Material) error {
	tag, err := r.pool.Exec(ctx, `UPDATE materials SET name = $2, unit = $3, updated_at = $4 WHERE id::text = $1`,
		m.ID, m.Name, m.Unit, m.UpdatedAt)
	if err != nil {
		return mapWriteError("update material", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id string, status shared.Status, updatedAt int64) error {
	return shared.SetStatus(ctx, r.pool, "materials", id, status, updatedAt)
}

func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return ErrDuplicateName
	}
	return fmt.Errorf("%s: %w", op, err)
}

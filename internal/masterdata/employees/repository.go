package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/db"
)

// Repository defines employee persistence. An empty hash on Update keeps
// the stored password.
type Repository interface {
	Get(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, req ListRequest, limit, offset int) ([]Employee, int, error)
	Insert(ctx context.Context, e *Employee, passwordHash string) error
	Update(ctx context.Context, e *Employee, passwordHash string) error
	SetStatus(ctx context.Context, id string, status shared.Status, updatedAt int64) error
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
	CountByRole(ctx context.Context, role string) (int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id::text, name, email, contact_number, role, status, created_at, updated_at`

func scan(row pgx.Row) (*Employee, error) {
	var e Employee
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.ContactNumber, &e.Role, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Employee, error) {
	e, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM employees WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, req ListRequest, limit, offset int) ([]Employee, int, error) {
	var f shared.Filter
	f.Search(req.Search, "name", "email")
	f.AnyOf("role", req.Roles)
	f.Statuses("status", req.Statuses)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+f.SQL(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	page, args := f.Page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM employees`+f.SQL()+` ORDER BY name ASC, id ASC`+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()
	out := make([]Employee, 0)
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, e *Employee, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO employees (id, name, email, contact_number, role, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Name, e.Email, e.ContactNumber, e.Role, passwordHash, string(e.Status), e.CreatedAt, e.UpdatedAt)
	return mapWriteError("insert employee", err)
}

func (r *repository) Update(ctx context.Context, e *Employee, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET name = $2, email = $3, contact_number = $4, role = $5,
		password_hash = CASE WHEN $6 = '' THEN password_hash ELSE $6 END, updated_at = $7
		WHERE id::text = $1`,
		e.ID, e.Name, e.Email, e.ContactNumber, e.Role, passwordHash, e.UpdatedAt)
	if err != nil {
		return mapWriteError("update employee", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id string, status shared.Status, updatedAt int64) error {
	return shared.SetStatus(ctx, r.pool, "employees", id, status, updatedAt)
}

func (r *repository) FindCredentials(ctx context.Context, email string) (*Credentials, error) {
	var c Credentials
	err := r.pool.QueryRow(ctx, `SELECT id::text, email, role, status, password_hash FROM employees WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&c.EmployeeID, &c.Email, &c.Role, &c.Status, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find employee credentials: %w", err)
	}
	return &c, nil
}

func (r *repository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE role = $1 AND status = 'active'`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count employees: %w", err)
	}
	return n, nil
}

func mapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return fmt.Errorf("%s: %w", op, err)
}

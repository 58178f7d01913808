package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists file metadata.
type Repository interface {
	Insert(ctx context.Context, f *File) error
	Get(ctx context.Context, publicID string) (*File, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, f *File) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO files (public_id, filename, extension, content_type, size, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.PublicID, f.Filename, f.Extension, f.ContentType, f.Size, f.UploadedBy, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, publicID string) (*File, error) {
	var f File
	err := r.pool.QueryRow(ctx, `SELECT public_id::text, filename, extension, content_type, size, uploaded_by::text, created_at
		FROM files WHERE public_id::text = $1`, publicID).
		Scan(&f.PublicID, &f.Filename, &f.Extension, &f.ContentType, &f.Size, &f.UploadedBy, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}

package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

func TestConstraintErrors(t *testing.T) {
	unique := fmt.Errorf("insert party: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_materials_name"})
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.Equal(t, "uq_materials_name", ConstraintName(unique))

	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.Empty(t, ConstraintName(errors.New("boom")))
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: "40001"}))
}

func TestTxConflictMapsToConflict(t *testing.T) {
	assert.ErrorIs(t, ErrTxConflict, httpx.ErrConflict)
	assert.Equal(t, 409, httpx.StatusOf(ErrTxConflict))
}

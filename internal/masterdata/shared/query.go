package shared

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/solutions-liquify/tms/internal/platform/db"
)

// Filter accumulates WHERE conditions and their positional arguments.
type Filter struct {
	conds []string
	args  []any
}

// Arg appends a value and returns its placeholder.
func (f *Filter) Arg(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

// Where adds a raw condition. Placeholders must come from Arg.
func (f *Filter) Where(cond string) {
	f.conds = append(f.conds, cond)
}

// AnyOf restricts column to values. Empty values add nothing.
func (f *Filter) AnyOf(column string, values []string) {
	if len(values) == 0 {
		return
	}
	f.Where(column + " = ANY(" + f.Arg(values) + ")")
}

// AnyOfFold is AnyOf with case-insensitive matching.
func (f *Filter) AnyOfFold(column string, values []string) {
	if len(values) == 0 {
		return
	}
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(v)))
	}
	f.Where("LOWER(" + column + ") = ANY(" + f.Arg(lowered) + ")")
}

// Search matches the term against any of the columns with ILIKE.
func (f *Filter) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	ph := f.Arg(db.ContainsPattern(term))
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" ILIKE "+ph)
	}
	f.Where("(" + strings.Join(parts, " OR ") + ")")
}

// Statuses restricts the status column.
func (f *Filter) Statuses(column string, statuses []Status) {
	f.AnyOf(column, StatusStrings(statuses))
}

// SQL renders the WHERE clause, or "" when empty.
func (f *Filter) SQL() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

// Args returns the accumulated arguments.
func (f *Filter) Args() []any {
	return f.args
}

// Page appends LIMIT/OFFSET placeholders to a copy of the arguments.
func (f *Filter) Page(limit, offset int) (string, []any) {
	args := append(append([]any{}, f.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SetStatus flips the status of one row. table must be a trusted identifier.
func SetStatus(ctx context.Context, db Execer, table, id string, status Status, updatedAt int64) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	tag, err := db.Exec(ctx, `UPDATE `+table+` SET status = $1, updated_at = $2 WHERE id::text = $3`, string(status), updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/model"
)

// Contact is the address book record shared by parties and locations.
type Contact = model.Contact

// ContactListRequest filters contact listings.
type ContactListRequest = model.ContactListRequest

// ContactRepository persists contacts in one table.
type ContactRepository interface {
	Get(ctx context.Context, id string) (*Contact, error)
	List(ctx context.Context, req ContactListRequest, limit, offset int) ([]Contact, int, error)
	Insert(ctx context.Context, c *Contact) error
	Update(ctx context.Context, c *Contact) error
	SetStatus(ctx context.Context, id string, status Status, updatedAt int64) error
}

type contactRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewContactRepository binds the repository to a table with the contact
// columns. table must be a trusted identifier.
func NewContactRepository(pool *pgxpool.Pool, table string) ContactRepository {
	return &contactRepository{pool: pool, table: table}
}

const contactColumns = `id::text, name, point_of_contact, contact_number, email, address_line1, address_line2,
	state, district, taluka, city, pincode, status, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.PointOfContact, &c.ContactNumber, &c.Email,
		&c.AddressLine1, &c.AddressLine2, &c.State, &c.District, &c.Taluka, &c.City,
		&c.Pincode, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contactRepository) Get(ctx context.Context, id string) (*Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM `+r.table+` WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.table, err)
	}
	return c, nil
}

func (r *contactRepository) List(ctx context.Context, req ContactListRequest, limit, offset int) ([]Contact, int, error) {
	var f Filter
	f.Search(req.Search, "name", "point_of_contact", "contact_number", "email")
	f.AnyOfFold("state", req.States)
	f.AnyOfFold("district", req.Districts)
	f.AnyOfFold("taluka", req.Talukas)
	f.AnyOfFold("city", req.Cities)
	f.Statuses("status", Scope(req.Statuses, req.GetAll))

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+r.table+f.SQL(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table, err)
	}

	query := `SELECT ` + contactColumns + ` FROM ` + r.table + f.SQL() + ` ORDER BY name ASC, id ASC`
	args := f.Args()
	if limit > 0 {
		var page string
		page, args = f.Page(limit, offset)
		query += page
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.table, err)
	}
	defer rows.Close()

	out := make([]Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *contactRepository) Insert(ctx context.Context, c *Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO `+r.table+` (id, name, point_of_contact, contact_number, email, address_line1, address_line2,
			state, district, taluka, city, pincode, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.Name, c.PointOfContact, c.ContactNumber, c.Email, c.AddressLine1, c.AddressLine2,
		c.State, c.District, c.Taluka, c.City, c.Pincode, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

func (r *contactRepository) Update(ctx context.Context, c *Contact) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE `+r.table+` SET name = $2, point_of_contact = $3, contact_number = $4, email = $5,
			address_line1 = $6, address_line2 = $7, state = $8, district = $9, taluka = $10,
			city = $11, pincode = $12, updated_at = $13
		WHERE id::text = $1`,
		c.ID, c.Name, c.PointOfContact, c.ContactNumber, c.Email, c.AddressLine1, c.AddressLine2,
		c.State, c.District, c.Taluka, c.City, c.Pincode, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *contactRepository) SetStatus(ctx context.Context, id string, status Status, updatedAt int64) error {
	return SetStatus(ctx, r.pool, r.table, id, status, updatedAt)
}

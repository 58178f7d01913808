package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/platform/db"
)

// Repository defines company persistence. Save writes the company row and
// replaces its fleet in one transaction.
type Repository interface {
	Get(ctx context.Context, id string) (*Company, error)
	List(ctx context.Context, req ListRequest, limit, offset int) ([]Company, int, error)
	Insert(ctx context.Context, c *Company) error
	Update(ctx context.Context, c *Company) error
	SetStatus(ctx context.Context, id string, status shared.Status, updatedAt int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id::text, company_name, point_of_contact, contact_number, email, address_line1, address_line2,
	state, district, taluka, city, pin_code, status, created_at, updated_at`

func scan(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.CompanyName, &c.PointOfContact, &c.ContactNumber, &c.Email,
		&c.AddressLine1, &c.AddressLine2, &c.State, &c.District, &c.Taluka, &c.City,
		&c.PinCode, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Vehicles = []Vehicle{}
	c.Drivers = []Driver{}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Company, error) {
	c, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM transportation_companies WHERE id::text = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transportation company: %w", err)
	}
	byID := map[string]*Company{c.ID: c}
	if err := r.loadFleet(ctx, byID); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListRequest, limit, offset int) ([]Company, int, error) {
	var f shared.Filter
	f.Search(req.Search, "company_name", "point_of_contact", "city")
	f.Statuses("status", shared.Scope(req.Statuses, req.GetAll))

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transportation_companies`+f.SQL(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transportation companies: %w", err)
	}
	query := `SELECT ` + columns + ` FROM transportation_companies` + f.SQL() + ` ORDER BY company_name ASC, id ASC`
	args := f.Args()
	if limit > 0 {
		var page string
		page, args = f.Page(limit, offset)
		query += page
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transportation companies: %w", err)
	}
	out := make([]*Company, 0)
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	byID := make(map[string]*Company, len(out))
	for _, c := range out {
		byID[c.ID] = c
	}
	if err := r.loadFleet(ctx, byID); err != nil {
		return nil, 0, err
	}
	companies := make([]Company, len(out))
	for i, c := range out {
		companies[i] = *c
	}
	return companies, total, nil
}

func (r *repository) loadFleet(ctx context.Context, byID map[string]*Company) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.pool.Query(ctx, `SELECT transportation_company_id::text, id::text, vehicle_number, type, rc_book_url
		FROM vehicles WHERE transportation_company_id::text = ANY($1) ORDER BY vehicle_number, id`, ids)
	if err != nil {
		return fmt.Errorf("load vehicles: %w", err)
	}
	for rows.Next() {
		var companyID string
		var v Vehicle
		if err := rows.Scan(&companyID, &v.ID, &v.VehicleNumber, &v.Type, &v.RCBookURL); err != nil {
			rows.Close()
			return err
		}
		byID[companyID].Vehicles = append(byID[companyID].Vehicles, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT transportation_company_id::text, id::text, name, contact_number, driving_license_url
		FROM drivers WHERE transportation_company_id::text = ANY($1) ORDER BY name, id`, ids)
	if err != nil {
		return fmt.Errorf("load drivers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var companyID string
		var d Driver
		if err := rows.Scan(&companyID, &d.ID, &d.Name, &d.ContactNumber, &d.DrivingLicenseURL); err != nil {
			return err
		}
		byID[companyID].Drivers = append(byID[companyID].Drivers, d)
	}
	return rows.Err()
}

func (r *repository) Insert(ctx context.Context, c *Company) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO transportation_companies (id, company_name, point_of_contact, contact_number, email,
			address_line1, address_line2, state, district, taluka, city, pin_code, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			c.ID, c.CompanyName, c.PointOfContact, c.ContactNumber, c.Email, c.AddressLine1, c.AddressLine2,
			c.State, c.District, c.Taluka, c.City, c.PinCode, string(c.Status), c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert transportation company: %w", err)
		}
		return replaceFleet(ctx, tx, c)
	})
}

func (r *repository) Update(ctx context.Context, c *Company) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE transportation_companies SET company_name = $2, point_of_contact = $3,
			contact_number = $4, email = $5, address_line1 = $6, address_line2 = $7, state = $8, district = $9,
			taluka = $10, city = $11, pin_code = $12, updated_at = $13
			WHERE id::text = $1`,
			c.ID, c.CompanyName, c.PointOfContact, c.ContactNumber, c.Email, c.AddressLine1, c.AddressLine2,
			c.State, c.District, c.Taluka, c.City, c.PinCode, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update transportation company: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return replaceFleet(ctx, tx, c)
	})
}

// replaceFleet upserts the listed vehicles and drivers and removes the rest.
// Removing a row a challan still points at fails with ErrFleetInUse.
func replaceFleet(ctx context.Context, tx pgx.Tx, c *Company) error {
	vehicleIDs := make([]string, 0, len(c.Vehicles))
	for _, v := range c.Vehicles {
		vehicleIDs = append(vehicleIDs, v.ID)
		_, err := tx.Exec(ctx, `INSERT INTO vehicles (id, transportation_company_id, vehicle_number, type, rc_book_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET vehicle_number = EXCLUDED.vehicle_number, type = EXCLUDED.type,
				rc_book_url = EXCLUDED.rc_book_url
			WHERE vehicles.transportation_company_id = EXCLUDED.transportation_company_id`,
			v.ID, c.ID, v.VehicleNumber, v.Type, v.RCBookURL)
		if err != nil {
			return fmt.Errorf("save vehicle: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM vehicles WHERE transportation_company_id::text = $1 AND NOT (id::text = ANY($2))`,
		c.ID, vehicleIDs); err != nil {
		return mapFleetError("remove vehicles", err)
	}

	driverIDs := make([]string, 0, len(c.Drivers))
	for _, d := range c.Drivers {
		driverIDs = append(driverIDs, d.ID)
		_, err := tx.Exec(ctx, `INSERT INTO drivers (id, transportation_company_id, name, contact_number, driving_license_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, contact_number = EXCLUDED.contact_number,
				driving_license_url = EXCLUDED.driving_license_url
			WHERE drivers.transportation_company_id = EXCLUDED.transportation_company_id`,
			d.ID, c.ID, d.Name, d.ContactNumber, d.DrivingLicenseURL)
		if err != nil {
			return fmt.Errorf("save driver: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM drivers WHERE transportation_company_id::text = $1 AND NOT (id::text = ANY($2))`,
		c.ID, driverIDs); err != nil {
		return mapFleetError("remove drivers", err)
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id string, status shared.Status, updatedAt int64) error {
	return shared.SetStatus(ctx, r.pool, "transportation_companies", id, status, updatedAt)
}

func mapFleetError(op string, err error) error {
	if db.IsForeignKeyViolation(err) {
		return ErrFleetInUse
	}
	return fmt.Errorf("%s: %w", op, err)
}

package challans

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/platform/db"
	"github.com/solutions-liquify/tms/internal/shared"
)

// Orders returns the order repository bound to the same transaction.
func (t *txRepository) Orders() orders.TxRepository {
	return t.orders
}

// GetChallan loads a challan inside the transaction, optionally locking it.
func (t *txRepository) GetChallan(ctx context.Context, id string, lock bool) (*DeliveryChallan, error) {
	return loadChallan(ctx, t.tx, id, lock)
}

// InsertChallan inserts a challan header and its items.
func (t *txRepository) InsertChallan(ctx context.Context, c *DeliveryChallan) error {
	query := `
		INSERT INTO delivery_challans (
			id, delivery_order_id, date_of_challan, status,
			transportation_company_id, vehicle_id, driver_id,
			total_delivering_quantity, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := t.tx.Exec(ctx, query,
		c.ID, c.DeliveryOrderID, c.DateOfChallan, c.Status,
		c.TransportationCompanyID, c.VehicleID, c.DriverID,
		c.TotalDeliveringQuantity, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return t.replaceItems(ctx, c)
}

// SaveChallan writes the mutable header fields and replaces the item set.
func (t *txRepository) SaveChallan(ctx context.Context, c *DeliveryChallan) error {
	query := `
		UPDATE delivery_challans
		SET date_of_challan = $1, transportation_company_id = $2, vehicle_id = $3, driver_id = $4,
		    total_delivering_quantity = $5, updated_at = $6
		WHERE id = $7
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		c.DateOfChallan, c.TransportationCompanyID, c.VehicleID, c.DriverID,
		c.TotalDeliveringQuantity, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return t.replaceItems(ctx, c)
}

func (t *txRepository) replaceItems(ctx context.Context, c *DeliveryChallan) error {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ID)
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM delivery_challan_items WHERE delivery_challan_id = $1 AND NOT (id::text = ANY($2))`, c.ID, ids); err != nil {
		return fmt.Errorf("delete removed challan items: %w", err)
	}
	if len(c.Items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range c.Items {
		batch.Queue(`
			INSERT INTO delivery_challan_items (id, delivery_challan_id, delivery_order_item_id, delivering_quantity, index_order)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				delivering_quantity = EXCLUDED.delivering_quantity,
				index_order = EXCLUDED.index_order
		`, it.ID, c.ID, it.DeliveryOrderItemID, it.DeliveringQuantity, it.IndexOrder)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert challan items: %w", mapWriteError(err))
	}
	return nil
}

// SetStatus updates the stored challan status.
func (t *txRepository) SetStatus(ctx context.Context, id string, status Status, updatedAt int64) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE delivery_challans SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TransportCompany resolves a transportation company with its fleet ids.
func (t *txRepository) TransportCompany(ctx context.Context, id string) (*TransportRef, error) {
	var ref TransportRef
	var status string
	err := t.tx.QueryRow(ctx, `SELECT id::text, company_name, status FROM transportation_companies WHERE id::text = $1`, id).
		Scan(&ref.ID, &ref.Name, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransportNotFound
		}
		return nil, err
	}
	ref.Active = status == "active"

	rows, err := t.tx.Query(ctx, `SELECT id::text FROM vehicles WHERE transportation_company_id = $1`, ref.ID)
	if err != nil {
		return nil, err
	}
	if ref.VehicleIDs, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return nil, err
	}

	rows, err = t.tx.Query(ctx, `SELECT id::text FROM drivers WHERE transportation_company_id = $1`, ref.ID)
	if err != nil {
		return nil, err
	}
	if ref.DriverIDs, err = pgx.CollectRows(rows, pgx.RowTo[string]); err != nil {
		return nil, err
	}
	return &ref, nil
}

// ClaimIdempotencyKey records key in the transaction; a replay fails with
// ErrDuplicateRequest.
func (t *txRepository) ClaimIdempotencyKey(ctx context.Context, key string) error {
	err := t.idem.CheckAndInsertWith(ctx, t.tx, key, idempotencyModule)
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		return ErrDuplicateRequest
	}
	return err
}

func mapWriteError(err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w (%s)", ErrUnknownReference, db.ConstraintName(err))
	case db.IsUniqueViolation(err):
		return ErrDuplicateItem
	default:
		return err
	}
}

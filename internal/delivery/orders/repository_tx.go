package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/solutions-liquify/tms/internal/platform/db"
)

// LockOrder loads the order tree and takes a row lock on the order header.
// Every quantity mutation of an order goes through this lock.
func (t *txRepository) LockOrder(ctx context.Context, id string) (*DeliveryOrder, error) {
	return loadOrder(ctx, t.tx, id, true)
}

// Party resolves a party reference.
func (t *txRepository) Party(ctx context.Context, id string) (*PartyRef, error) {
	var p PartyRef
	var status string
	err := t.tx.QueryRow(ctx, `SELECT id, name, status FROM parties WHERE id::text = $1`, id).Scan(&p.ID, &p.Name, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	p.Active = status == "active"
	return &p, nil
}

// InactiveReferences returns the ids among the given locations and materials
// that exist but are inactive.
func (t *txRepository) InactiveReferences(ctx context.Context, locationIDs, materialIDs []string) ([]string, error) {
	if len(locationIDs) == 0 && len(materialIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT id::text FROM locations WHERE id::text = ANY($1) AND status <> 'active'
		UNION ALL
		SELECT id::text FROM materials WHERE id::text = ANY($2) AND status <> 'active'
	`
	rows, err := t.tx.Query(ctx, query, locationIDs, materialIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// InsertOrder inserts the header, sections and items of a new order.
func (t *txRepository) InsertOrder(ctx context.Context, o *DeliveryOrder) error {
	query := `
		INSERT INTO delivery_orders (
			id, contract_id, party_id, date_of_contract, status,
			grand_total_quantity, grand_total_pending_quantity,
			grand_total_in_progress_quantity, grand_total_delivered_quantity,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := t.tx.Exec(ctx, query,
		o.ID, o.ContractID, o.PartyID, o.DateOfContract, o.Status,
		o.GrandTotalQuantity, o.GrandTotalPendingQuantity,
		o.GrandTotalInProgressQuantity, o.GrandTotalDeliveredQuantity,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return t.upsertTree(ctx, o)
}

// ReplaceTree writes a full-document update: header fields, then the section
// and item sets, deleting rows the document no longer contains.
func (t *txRepository) ReplaceTree(ctx context.Context, o *DeliveryOrder) error {
	query := `
		UPDATE delivery_orders
		SET contract_id = $1, party_id = $2, date_of_contract = $3, status = $4,
		    grand_total_quantity = $5, grand_total_pending_quantity = $6,
		    grand_total_in_progress_quantity = $7, grand_total_delivered_quantity = $8,
		    updated_at = $9
		WHERE id = $10
	`
	cmdTag, err := t.tx.Exec(ctx, query,
		o.ContractID, o.PartyID, o.DateOfContract, o.Status,
		o.GrandTotalQuantity, o.GrandTotalPendingQuantity,
		o.GrandTotalInProgressQuantity, o.GrandTotalDeliveredQuantity,
		o.UpdatedAt, o.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	sectionIDs := make([]string, 0, len(o.Sections))
	var itemIDs []string
	for _, s := range o.Sections {
		sectionIDs = append(sectionIDs, s.ID)
		for _, it := range s.Items {
			itemIDs = append(itemIDs, it.ID)
		}
	}
	if itemIDs == nil {
		itemIDs = []string{}
	}

	if _, err := t.tx.Exec(ctx, `DELETE FROM delivery_order_items WHERE delivery_order_id = $1 AND NOT (id::text = ANY($2))`, o.ID, itemIDs); err != nil {
		return fmt.Errorf("delete removed items: %w", mapWriteError(err))
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM delivery_order_sections WHERE delivery_order_id = $1 AND NOT (id::text = ANY($2))`, o.ID, sectionIDs); err != nil {
		return fmt.Errorf("delete removed sections: %w", mapWriteError(err))
	}
	return t.upsertTree(ctx, o)
}

func (t *txRepository) upsertTree(ctx context.Context, o *DeliveryOrder) error {
	sectionQuery := `
		INSERT INTO delivery_order_sections (
			id, delivery_order_id, district, total_quantity, total_pending_quantity,
			total_in_progress_quantity, total_delivered_quantity, index_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			district = EXCLUDED.district,
			total_quantity = EXCLUDED.total_quantity,
			total_pending_quantity = EXCLUDED.total_pending_quantity,
			total_in_progress_quantity = EXCLUDED.total_in_progress_quantity,
			total_delivered_quantity = EXCLUDED.total_delivered_quantity,
			index_order = EXCLUDED.index_order
	`
	itemQuery := `
		INSERT INTO delivery_order_items (
			id, delivery_order_id, delivery_order_section_id, district, taluka,
			location_id, material_id, quantity, delivered_quantity, in_progress_quantity,
			rate, due_date, index_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			delivery_order_section_id = EXCLUDED.delivery_order_section_id,
			district = EXCLUDED.district,
			taluka = EXCLUDED.taluka,
			location_id = EXCLUDED.location_id,
			material_id = EXCLUDED.material_id,
			quantity = EXCLUDED.quantity,
			delivered_quantity = EXCLUDED.delivered_quantity,
			in_progress_quantity = EXCLUDED.in_progress_quantity,
			rate = EXCLUDED.rate,
			due_date = EXCLUDED.due_date,
			index_order = EXCLUDED.index_order
	`
	for _, s := range o.Sections {
		if _, err := t.tx.Exec(ctx, sectionQuery,
			s.ID, o.ID, s.District, s.TotalQuantity, s.TotalPendingQuantity,
			s.TotalInProgressQuantity, s.TotalDeliveredQuantity, s.IndexOrder,
		); err != nil {
			return fmt.Errorf("upsert section %q: %w", s.District, mapWriteError(err))
		}
		for _, it := range s.Items {
			if _, err := t.tx.Exec(ctx, itemQuery,
				it.ID, o.ID, s.ID, it.District, it.Taluka,
				it.LocationID, it.MaterialID, it.Quantity, it.DeliveredQuantity, it.InProgressQuantity,
				it.Rate, it.DueDate, it.IndexOrder,
			); err != nil {
				return fmt.Errorf("upsert item in %q: %w", s.District, mapWriteError(err))
			}
		}
	}
	return nil
}

// SaveQuantities persists reconciled item quantities and the derived totals.
func (t *txRepository) SaveQuantities(ctx context.Context, o *DeliveryOrder) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE delivery_orders
		SET status = $1, grand_total_quantity = $2, grand_total_pending_quantity = $3,
		    grand_total_in_progress_quantity = $4, grand_total_delivered_quantity = $5,
		    updated_at = $6
		WHERE id = $7
	`, o.Status, o.GrandTotalQuantity, o.GrandTotalPendingQuantity,
		o.GrandTotalInProgressQuantity, o.GrandTotalDeliveredQuantity, o.UpdatedAt, o.ID)
	for _, s := range o.Sections {
		batch.Queue(`
			UPDATE delivery_order_sections
			SET total_quantity = $1, total_pending_quantity = $2,
			    total_in_progress_quantity = $3, total_delivered_quantity = $4
			WHERE id = $5
		`, s.TotalQuantity, s.TotalPendingQuantity, s.TotalInProgressQuantity, s.TotalDeliveredQuantity, s.ID)
		for _, it := range s.Items {
			batch.Queue(`
				UPDATE delivery_order_items
				SET delivered_quantity = $1, in_progress_quantity = $2
				WHERE id = $3
			`, it.DeliveredQuantity, it.InProgressQuantity, it.ID)
		}
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

// CountOpenChallans counts challans of the order that are not cancelled.
func (t *txRepository) CountOpenChallans(ctx context.Context, orderID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM delivery_challans WHERE delivery_order_id = $1 AND status <> 'cancelled'`, orderID).Scan(&count)
	return count, err
}

// SetStatus updates the stored order status.
func (t *txRepository) SetStatus(ctx context.Context, id string, status Status, updatedAt int64) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE delivery_orders SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w (%s)", ErrUnknownReference, db.ConstraintName(err))
	case db.IsUniqueViolation(err):
		return ErrDuplicateDistrict
	default:
		return err
	}
}

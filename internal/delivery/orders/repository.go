package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/platform/db"
)

// Repository defines the interface for delivery order persistence.
type Repository interface {
	// Read operations
	Get(ctx context.Context, id string) (*DeliveryOrder, error)
	List(ctx context.Context, req ListRequest) ([]Record, int, error)
	ListItems(ctx context.Context, orderID string) ([]ItemMetadata, error)
	ListPendingItems(ctx context.Context, page, size int) ([]PendingItem, int, error)
	OverdueItemCount(ctx context.Context, now int64) (int, error)
	ListIDs(ctx context.Context, afterID string, limit int) ([]string, error)

	// Write operations (transactional)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations.
type TxRepository interface {
	LockOrder(ctx context.Context, id string) (*DeliveryOrder, error)
	Party(ctx context.Context, id string) (*PartyRef, error)
	InactiveReferences(ctx context.Context, locationIDs, materialIDs []string) ([]string, error)
	InsertOrder(ctx context.Context, o *DeliveryOrder) error
	ReplaceTree(ctx context.Context, o *DeliveryOrder) error
	SaveQuantities(ctx context.Context, o *DeliveryOrder) error
	CountOpenChallans(ctx context.Context, orderID string) (int, error)
	SetStatus(ctx context.Context, id string, status Status, updatedAt int64) error
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// txRepository implements TxRepository.
type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository binds the order write operations to a transaction owned by
// another aggregate, e.g. a challan save.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx wraps callback in repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get retrieves a delivery order with its full tree.
func (r *repository) Get(ctx context.Context, id string) (*DeliveryOrder, error) {
	return loadOrder(ctx, r.pool, id, false)
}

func loadOrder(ctx context.Context, q querier, id string, lock bool) (*DeliveryOrder, error) {
	query := `
		SELECT o.id, o.contract_id, o.party_id, p.name, o.date_of_contract, o.status,
		       o.grand_total_quantity, o.grand_total_pending_quantity,
		       o.grand_total_in_progress_quantity, o.grand_total_delivered_quantity,
		       o.created_at, o.updated_at
		FROM delivery_orders o
		INNER JOIN parties p ON p.id = o.party_id
		WHERE o.id::text = $1
	`
	if lock {
		query += ` FOR UPDATE OF o`
	}
	var o DeliveryOrder
	err := q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.ContractID, &o.PartyID, &o.PartyName, &o.DateOfContract, &o.Status,
		&o.GrandTotalQuantity, &o.GrandTotalPendingQuantity,
		&o.GrandTotalInProgressQuantity, &o.GrandTotalDeliveredQuantity,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sections, err := loadSections(ctx, q, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	items, err := loadItems(ctx, q, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	associated, err := loadAssociated(ctx, q, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load challan items: %w", err)
	}

	bySection := make(map[string]int, len(sections))
	for i := range sections {
		bySection[sections[i].ID] = i
	}
	for _, it := range items {
		it.AssociatedChallanItems = associated[it.ID]
		if it.AssociatedChallanItems == nil {
			it.AssociatedChallanItems = []AssociatedChallanItem{}
		}
		if idx, ok := bySection[it.DeliveryOrderSectionID]; ok {
			sections[idx].Items = append(sections[idx].Items, it)
		}
	}
	o.Sections = sections
	return &o, nil
}

func loadSections(ctx context.Context, q querier, orderID string) ([]Section, error) {
	query := `
		SELECT id, delivery_order_id, district, total_quantity, total_pending_quantity,
		       total_in_progress_quantity, total_delivered_quantity, index_order
		FROM delivery_order_sections
		WHERE delivery_order_id = $1
		ORDER BY index_order, id
	`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []Section{}
	for rows.Next() {
		var s Section
		if err := rows.Scan(
			&s.ID, &s.DeliveryOrderID, &s.District, &s.TotalQuantity, &s.TotalPendingQuantity,
			&s.TotalInProgressQuantity, &s.TotalDeliveredQuantity, &s.IndexOrder,
		); err != nil {
			return nil, err
		}
		s.Items = []Item{}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func loadItems(ctx context.Context, q querier, orderID string) ([]Item, error) {
	query := `
		SELECT i.id, i.delivery_order_id, i.delivery_order_section_id, i.district, i.taluka,
		       i.location_id, i.material_id, l.name, m.name,
		       i.quantity, i.delivered_quantity, i.in_progress_quantity, i.rate,
		       i.due_date, i.index_order
		FROM delivery_order_items i
		INNER JOIN locations l ON l.id = i.location_id
		INNER JOIN materials m ON m.id = i.material_id
		WHERE i.delivery_order_id = $1
		ORDER BY i.index_order, i.id
	`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.DeliveryOrderID, &it.DeliveryOrderSectionID, &it.District, &it.Taluka,
			&it.LocationID, &it.MaterialID, &it.LocationName, &it.MaterialName,
			&it.Quantity, &it.DeliveredQuantity, &it.InProgressQuantity, &it.Rate,
			&it.DueDate, &it.IndexOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func loadAssociated(ctx context.Context, q querier, orderID string) (map[string][]AssociatedChallanItem, error) {
	query := `
		SELECT ci.id, ci.delivery_challan_id, ci.delivery_order_item_id, ci.delivering_quantity, c.status
		FROM delivery_challan_items ci
		INNER JOIN delivery_challans c ON c.id = ci.delivery_challan_id
		WHERE c.delivery_order_id = $1
		ORDER BY c.created_at, ci.index_order
	`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]AssociatedChallanItem)
	for rows.Next() {
		var a AssociatedChallanItem
		var itemID string
		if err := rows.Scan(&a.ID, &a.DeliveryChallanID, &itemID, &a.DeliveringQuantity, &a.Status); err != nil {
			return nil, err
		}
		out[itemID] = append(out[itemID], a)
	}
	return out, rows.Err()
}

// List retrieves delivery order records with filters.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Record, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.IDs != nil {
		conditions = append(conditions, fmt.Sprintf("o.id::text = ANY($%d)", argPos))
		args = append(args, req.IDs)
		argPos++
	} else if s := strings.TrimSpace(req.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(o.contract_id ILIKE $%d OR p.name ILIKE $%d)", argPos, argPos))
		args = append(args, db.ContainsPattern(s))
		argPos++
	}

	if len(req.PartyIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("o.party_id::text = ANY($%d)", argPos))
		args = append(args, req.PartyIDs)
		argPos++
	}

	if len(req.Statuses) > 0 {
		statuses := make([]string, len(req.Statuses))
		for i, s := range req.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("o.status = ANY($%d)", argPos))
		args = append(args, statuses)
		argPos++
	}

	if req.FromDate != nil || req.ToDate != nil {
		var due []string
		if req.FromDate != nil {
			due = append(due, fmt.Sprintf("i.due_date >= $%d", argPos))
			args = append(args, *req.FromDate)
			argPos++
		}
		if req.ToDate != nil {
			due = append(due, fmt.Sprintf("i.due_date <= $%d", argPos))
			args = append(args, *req.ToDate)
			argPos++
		}
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM delivery_order_items i WHERE i.delivery_order_id = o.id AND %s)",
			strings.Join(due, " AND "),
		))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM delivery_orders o
		INNER JOIN parties p ON p.id = o.party_id
		%s
	`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Fetch
	query := fmt.Sprintf(`
		SELECT o.id, o.contract_id, o.party_id, p.name, o.status,
		       o.grand_total_quantity, o.grand_total_delivered_quantity,
		       o.grand_total_in_progress_quantity, o.date_of_contract
		FROM delivery_orders o
		INNER JOIN parties p ON p.id = o.party_id
		%s
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, req.Size, (req.Page-1)*req.Size)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.ContractID, &rec.PartyID, &rec.PartyName, &rec.Status,
			&rec.GrandTotalQuantity, &rec.GrandTotalDeliveredQuantity,
			&rec.GrandTotalInProgressQuantity, &rec.DateOfContract,
		); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// ListItems retrieves picker metadata for the items of one order.
func (r *repository) ListItems(ctx context.Context, orderID string) ([]ItemMetadata, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM delivery_orders WHERE id::text = $1)`, orderID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	query := `
		SELECT i.id, i.district, i.taluka, l.name, m.name, i.quantity, i.rate, i.due_date,
		       i.delivered_quantity, i.in_progress_quantity
		FROM delivery_order_items i
		INNER JOIN delivery_order_sections s ON s.id = i.delivery_order_section_id
		INNER JOIN locations l ON l.id = i.location_id
		INNER JOIN materials m ON m.id = i.material_id
		WHERE i.delivery_order_id::text = $1
		ORDER BY s.index_order, i.index_order
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ItemMetadata{}
	for rows.Next() {
		var m ItemMetadata
		if err := rows.Scan(
			&m.ID, &m.District, &m.Taluka, &m.LocationName, &m.MaterialName, &m.Quantity, &m.Rate,
			&m.DueDate, &m.DeliveredQuantity, &m.InProgressQuantity,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// ListPendingItems retrieves undelivered items of open orders, earliest due first.
func (r *repository) ListPendingItems(ctx context.Context, page, size int) ([]PendingItem, int, error) {
	const where = `
		FROM delivery_order_items i
		INNER JOIN delivery_orders o ON o.id = i.delivery_order_id
		INNER JOIN parties p ON p.id = o.party_id
		INNER JOIN locations l ON l.id = i.location_id
		INNER JOIN materials m ON m.id = i.material_id
		WHERE o.status <> 'cancelled' AND i.delivered_quantity < i.quantity
	`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT i.id, i.district, i.taluka, l.name, m.name, i.quantity, i.rate, i.due_date,
		       i.delivered_quantity, i.in_progress_quantity, o.id, o.contract_id, p.name
	` + where + `
		ORDER BY i.due_date ASC NULLS LAST, i.id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []PendingItem{}
	for rows.Next() {
		var p PendingItem
		if err := rows.Scan(
			&p.ID, &p.District, &p.Taluka, &p.LocationName, &p.MaterialName, &p.Quantity, &p.Rate,
			&p.DueDate, &p.DeliveredQuantity, &p.InProgressQuantity,
			&p.DeliveryOrderID, &p.ContractID, &p.PartyName,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// OverdueItemCount counts undelivered items of open orders whose due date has passed.
func (r *repository) OverdueItemCount(ctx context.Context, now int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM delivery_order_items i
		INNER JOIN delivery_orders o ON o.id = i.delivery_order_id
		WHERE o.status <> 'cancelled'
		  AND i.delivered_quantity < i.quantity
		  AND i.due_date IS NOT NULL AND i.due_date < $1
	`
	var count int
	err := r.pool.QueryRow(ctx, query, now).Scan(&count)
	return count, err
}

// ListIDs pages through order ids in id order, used by the search reindex.
func (r *repository) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text FROM delivery_orders WHERE id::text > $1 ORDER BY id::text LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

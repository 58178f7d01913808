package challans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/platform/db"
	"github.com/solutions-liquify/tms/internal/shared"
)

// idempotencyModule scopes challan idempotency keys.
const idempotencyModule = "delivery_challans"

// Repository defines the interface for delivery challan persistence.
type Repository interface {
	// Read operations
	Get(ctx context.Context, id string) (*DeliveryChallan, error)
	List(ctx context.Context, req ListRequest) ([]Record, int, error)

	// Write operations (transactional)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations. Orders gives access
// to the order side of the same transaction.
type TxRepository interface {
	Orders() orders.TxRepository
	GetChallan(ctx context.Context, id string, lock bool) (*DeliveryChallan, error)
	InsertChallan(ctx context.Context, c *DeliveryChallan) error
	SaveChallan(ctx context.Context, c *DeliveryChallan) error
	SetStatus(ctx context.Context, id string, status Status, updatedAt int64) error
	TransportCompany(ctx context.Context, id string) (*TransportRef, error)
	ClaimIdempotencyKey(ctx context.Context, key string) error
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
	idem *shared.IdempotencyStore
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool, idem: shared.NewIdempotencyStore(pool)}
}

// txRepository implements TxRepository.
type txRepository struct {
	tx     pgx.Tx
	orders orders.TxRepository
	idem   *shared.IdempotencyStore
}

// WithTx wraps callback in repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, orders: orders.NewTxRepository(tx), idem: r.idem})
	})
}

// Get retrieves a delivery challan with its items.
func (r *repository) Get(ctx context.Context, id string) (*DeliveryChallan, error) {
	return loadChallan(ctx, r.pool, id, false)
}

func loadChallan(ctx context.Context, q querier, id string, lock bool) (*DeliveryChallan, error) {
	query := `
		SELECT c.id, c.delivery_order_id, o.contract_id, p.name, c.date_of_challan, c.status,
		       c.transportation_company_id::text, COALESCE(tc.company_name, ''),
		       c.vehicle_id::text, COALESCE(v.vehicle_number, ''),
		       c.driver_id::text, COALESCE(d.name, ''),
		       c.total_delivering_quantity, c.created_at, c.updated_at
		FROM delivery_challans c
		INNER JOIN delivery_orders o ON o.id = c.delivery_order_id
		INNER JOIN parties p ON p.id = o.party_id
		LEFT JOIN transportation_companies tc ON tc.id = c.transportation_company_id
		LEFT JOIN vehicles v ON v.id = c.vehicle_id
		LEFT JOIN drivers d ON d.id = c.driver_id
		WHERE c.id::text = $1
	`
	if lock {
		query += ` FOR UPDATE OF c`
	}
	var c DeliveryChallan
	err := q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.DeliveryOrderID, &c.ContractID, &c.PartyName, &c.DateOfChallan, &c.Status,
		&c.TransportationCompanyID, &c.TransportationCompanyName,
		&c.VehicleID, &c.VehicleNumber,
		&c.DriverID, &c.DriverName,
		&c.TotalDeliveringQuantity, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items, err := loadItems(ctx, q, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load challan items: %w", err)
	}
	c.Items = items
	return &c, nil
}

func loadItems(ctx context.Context, q querier, challanID string) ([]Item, error) {
	query := `
		SELECT ci.id, ci.delivery_challan_id, ci.delivery_order_item_id,
		       i.district, i.taluka, l.name, m.name, i.rate, i.due_date,
		       i.quantity, i.delivered_quantity, i.in_progress_quantity,
		       ci.delivering_quantity, ci.index_order
		FROM delivery_challan_items ci
		INNER JOIN delivery_order_items i ON i.id = ci.delivery_order_item_id
		INNER JOIN locations l ON l.id = i.location_id
		INNER JOIN materials m ON m.id = i.material_id
		WHERE ci.delivery_challan_id = $1
		ORDER BY ci.index_order, ci.id
	`
	rows, err := q.Query(ctx, query, challanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.DeliveryChallanID, &it.DeliveryOrderItemID,
			&it.District, &it.Taluka, &it.LocationName, &it.MaterialName, &it.Rate, &it.DueDate,
			&it.Quantity, &it.DeliveredQuantity, &it.InProgressQuantity,
			&it.DeliveringQuantity, &it.IndexOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List retrieves delivery challan records with filters.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Record, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if s := strings.TrimSpace(req.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf("(o.contract_id ILIKE $%d OR p.name ILIKE $%d)", argPos, argPos))
		args = append(args, db.ContainsPattern(s))
		argPos++
	}

	if len(req.DeliveryOrderIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.delivery_order_id::text = ANY($%d)", argPos))
		args = append(args, req.DeliveryOrderIDs)
		argPos++
	}

	if len(req.PartyIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("o.party_id::text = ANY($%d)", argPos))
		args = append(args, req.PartyIDs)
		argPos++
	}

	if len(req.TransportationCompanyIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("c.transportation_company_id::text = ANY($%d)", argPos))
		args = append(args, req.TransportationCompanyIDs)
		argPos++
	}

	if len(req.Statuses) > 0 {
		statuses := make([]string, len(req.Statuses))
		for i, s := range req.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("c.status = ANY($%d)", argPos))
		args = append(args, statuses)
		argPos++
	}

	if req.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("c.date_of_challan >= $%d", argPos))
		args = append(args, *req.FromDate)
		argPos++
	}

	if req.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("c.date_of_challan <= $%d", argPos))
		args = append(args, *req.ToDate)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	const from = `
		FROM delivery_challans c
		INNER JOIN delivery_orders o ON o.id = c.delivery_order_id
		INNER JOIN parties p ON p.id = o.party_id
		LEFT JOIN transportation_companies tc ON tc.id = c.transportation_company_id
		LEFT JOIN vehicles v ON v.id = c.vehicle_id
	`

	// Count
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+from+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Fetch
	query := fmt.Sprintf(`
		SELECT c.id, c.delivery_order_id, o.contract_id, p.name, c.date_of_challan, c.status,
		       COALESCE(tc.company_name, ''), COALESCE(v.vehicle_number, ''),
		       c.total_delivering_quantity
		%s
		%s
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $%d OFFSET $%d
	`, from, whereClause, argPos, argPos+1)
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
			&rec.ID, &rec.DeliveryOrderID, &rec.ContractID, &rec.PartyName, &rec.DateOfChallan, &rec.Status,
			&rec.TransportationCompanyName, &rec.VehicleNumber, &rec.TotalDeliveringQuantity,
		); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

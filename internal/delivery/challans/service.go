package challans

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
	"github.com/solutions-liquify/tms/internal/platform/cache"
	"github.com/solutions-liquify/tms/reconcile"
	"github.com/solutions-liquify/tms/internal/shared"
)

// OrderService is the order side of challan operations.
type OrderService interface {
	Get(ctx context.Context, id string) (*orders.DeliveryOrder, error)
	UpdateTx(ctx context.Context, tx orders.TxRepository, req orders.DeliveryOrder) (*orders.DeliveryOrder, error)
	Notify(ctx context.Context, orderID, action string)
}

// Service provides business logic for delivery challans.
type Service struct {
	repo     Repository
	orders   OrderService
	logger   *slog.Logger
	notifier orders.ChangeNotifier
	cache    *cache.Versioned
	audit    orders.Auditor
	now      func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository, orderService OrderService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, orders: orderService, logger: logger, now: time.Now}
}

// SetNotifier sets the hook run after committed changes.
func (s *Service) SetNotifier(n orders.ChangeNotifier) { s.notifier = n }

// SetCache enables cached list responses.
func (s *Service) SetCache(c *cache.Versioned) { s.cache = c }

// SetAuditor enables audit records.
func (s *Service) SetAuditor(a orders.Auditor) { s.audit = a }

// CreateFromDeliveryOrder opens an empty pending challan for an order.
func (s *Service) CreateFromDeliveryOrder(ctx context.Context, orderID, idempotencyKey string) (*DeliveryChallan, error) {
	return s.Create(ctx, DeliveryChallan{DeliveryOrderID: orderID}, idempotencyKey)
}

// Create opens a challan and saves the given items in one transaction.
func (s *Service) Create(ctx context.Context, req DeliveryChallan, idempotencyKey string) (*DeliveryChallan, error) {
	normalizeRefs(&req)
	if err := ValidateItems(req.Items); err != nil {
		return nil, err
	}

	var created *DeliveryChallan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if idempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, idempotencyKey); err != nil {
				return err
			}
		}
		c, err := s.createTx(ctx, tx, req)
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, created, "delivery_challan.create")
	return s.Get(ctx, created.ID)
}

func (s *Service) createTx(ctx context.Context, tx TxRepository, req DeliveryChallan) (*DeliveryChallan, error) {
	order, err := tx.Orders().LockOrder(ctx, req.DeliveryOrderID)
	if err != nil {
		return nil, fmt.Errorf("get delivery order: %w", err)
	}
	if order.Status == orders.StatusCancelled {
		return nil, ErrOrderCancelled
	}

	now := s.now().Unix()
	date := req.DateOfChallan
	if date == nil {
		date = &now
	}
	c := &DeliveryChallan{
		ID:              uuid.NewString(),
		DeliveryOrderID: order.ID,
		ContractID:      order.ContractID,
		PartyName:       order.PartyName,
		DateOfChallan:   date,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           []Item{},
	}
	if err := tx.InsertChallan(ctx, c); err != nil {
		return nil, fmt.Errorf("create delivery challan: %w", err)
	}

	req.DateOfChallan = date
	return s.saveTx(ctx, tx, order, c, req)
}

// Update saves a pending challan: its items, delivering quantities and
// transport details. The order quantities are re-reconciled in the same
// transaction.
func (s *Service) Update(ctx context.Context, req DeliveryChallan) (*DeliveryChallan, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, ErrMissingID
	}
	normalizeRefs(&req)
	if err := ValidateItems(req.Items); err != nil {
		return nil, err
	}

	var saved *DeliveryChallan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, current, err := lockChallan(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if req.DeliveryOrderID != "" && req.DeliveryOrderID != current.DeliveryOrderID {
			return ErrOrderImmutable
		}
		if !canEdit(current.Status) {
			return ErrCannotEdit
		}
		if order.Status == orders.StatusCancelled {
			return ErrOrderCancelled
		}
		saved, err = s.saveTx(ctx, tx, order, current, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, saved, "delivery_challan.update")
	return s.Get(ctx, saved.ID)
}

// saveTx reverses the current contribution of the challan, applies the
// requested one to the in-progress bucket and persists both sides once the
// capacity invariant holds for every touched order item.
func (s *Service) saveTx(ctx context.Context, tx TxRepository, order *orders.DeliveryOrder, current *DeliveryChallan, req DeliveryChallan) (*DeliveryChallan, error) {
	if err := ValidateAgainstOrder(req.Items, order); err != nil {
		return nil, err
	}
	if err := checkTransport(ctx, tx, current, &req); err != nil {
		return nil, err
	}

	now := s.now()
	ledger := newLedger(order)
	for _, e := range current.Entries() {
		if err := ledger.Reverse(e); err != nil {
			return nil, fmt.Errorf("reverse challan %s: %w", current.ID, err)
		}
	}

	next := *current
	if req.DateOfChallan != nil {
		next.DateOfChallan = req.DateOfChallan
	}
	next.TransportationCompanyID = req.TransportationCompanyID
	next.VehicleID = req.VehicleID
	next.DriverID = req.DriverID
	next.UpdatedAt = now.Unix()

	existingIDs := make(map[string]string, len(current.Items))
	for _, it := range current.Items {
		existingIDs[it.DeliveryOrderItemID] = it.ID
	}
	next.Items = make([]Item, len(req.Items))
	for i, it := range req.Items {
		id, ok := existingIDs[it.DeliveryOrderItemID]
		if !ok {
			id = uuid.NewString()
		}
		next.Items[i] = Item{
			ID:                  id,
			DeliveryOrderItemID: it.DeliveryOrderItemID,
			DeliveringQuantity:  it.DeliveringQuantity,
		}
	}
	for _, e := range next.Entries() {
		if err := ledger.Apply(e); err != nil {
			return nil, fmt.Errorf("apply challan %s: %w", next.ID, err)
		}
	}

	if err := settle(ctx, tx, order, ledger, now); err != nil {
		return nil, err
	}
	for i := range next.Items {
		src, _ := order.ItemByID(next.Items[i].DeliveryOrderItemID)
		next.Items[i].Describe(*src)
	}
	next.Recalculate()
	if err := tx.SaveChallan(ctx, &next); err != nil {
		return nil, fmt.Errorf("update delivery challan: %w", err)
	}
	return &next, nil
}

// MarkDelivered moves the challan's quantities from in-progress to
// delivered on every referenced order item.
func (s *Service) MarkDelivered(ctx context.Context, id string) (*DeliveryChallan, error) {
	var challan *DeliveryChallan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, c, err := lockChallan(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canDeliver(c.Status) {
			return ErrCannotDeliver
		}

		now := s.now()
		ledger := newLedger(order)
		for _, it := range c.Items {
			if err := ledger.Move(it.DeliveryOrderItemID, it.DeliveringQuantity, reconcile.InProgress, reconcile.Delivered); err != nil {
				return fmt.Errorf("deliver challan %s: %w", c.ID, err)
			}
		}
		if err := settle(ctx, tx, order, ledger, now); err != nil {
			return err
		}
		challan = c
		return tx.SetStatus(ctx, c.ID, StatusDelivered, now.Unix())
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, challan, "delivery_challan.deliver")
	return s.Get(ctx, id)
}

// Cancel reverses the challan's contribution from the bucket it occupies.
// Cancellation is terminal.
func (s *Service) Cancel(ctx context.Context, id string) (*DeliveryChallan, error) {
	var challan *DeliveryChallan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, c, err := lockChallan(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canCancel(c.Status) {
			return ErrCannotCancel
		}

		now := s.now()
		ledger := newLedger(order)
		for _, e := range c.Entries() {
			if err := ledger.Reverse(e); err != nil {
				return fmt.Errorf("reverse challan %s: %w", c.ID, err)
			}
		}
		if err := settle(ctx, tx, order, ledger, now); err != nil {
			return err
		}
		challan = c
		return tx.SetStatus(ctx, c.ID, StatusCancelled, now.Unix())
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, challan, "delivery_challan.cancel")
	return s.Get(ctx, id)
}

// SaveOrderAndCreateChallan applies an order update and opens a challan for
// it. Either both commit or neither does.
func (s *Service) SaveOrderAndCreateChallan(ctx context.Context, order orders.DeliveryOrder, idempotencyKey string) (*OrderWithChallan, error) {
	var created *DeliveryChallan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if idempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, idempotencyKey); err != nil {
				return err
			}
		}
		if _, err := s.orders.UpdateTx(ctx, tx.Orders(), order); err != nil {
			return err
		}
		c, err := s.createTx(ctx, tx, DeliveryChallan{DeliveryOrderID: order.ID})
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.orders.Notify(ctx, order.ID, "delivery_order.update")
	s.record(ctx, created, "delivery_challan.create")

	updated, err := s.orders.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	challan, err := s.Get(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	return &OrderWithChallan{DeliveryOrder: updated, DeliveryChallan: challan}, nil
}

// Get retrieves a challan.
func (s *Service) Get(ctx context.Context, id string) (*DeliveryChallan, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get delivery challan: %w", err)
	}
	return c, nil
}

// List returns a page of challan records.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Record, shared.Pagination, error) {
	if err := ValidateListRequest(req); err != nil {
		return nil, shared.Pagination{}, err
	}
	req.Page, req.Size = shared.NormalizePage(req.Page, req.Size)

	var result ListResult
	load := func(ctx context.Context) (any, error) {
		records, total, err := s.repo.List(ctx, req)
		if err != nil {
			return nil, err
		}
		return ListResult{Records: records, Total: total}, nil
	}

	if s.cache != nil {
		key, err := s.cache.BuildKey(ctx, orders.CacheNamespace, "challans", filterHash(req))
		if err == nil {
			if err := s.cache.FetchJSON(ctx, key, &result, load); err != nil {
				return nil, shared.Pagination{}, fmt.Errorf("list delivery challans: %w", err)
			}
			return result.Records, shared.NewPagination(req.Page, req.Size, result.Total), nil
		}
		s.logger.Warn("build delivery cache key failed", slog.Any("error", err))
	}

	v, err := load(ctx)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list delivery challans: %w", err)
	}
	result = v.(ListResult)
	return result.Records, shared.NewPagination(req.Page, req.Size, result.Total), nil
}

func (s *Service) changed(ctx context.Context, c *DeliveryChallan, action string) {
	if s.notifier != nil {
		s.notifier.OrderChanged(ctx, c.DeliveryOrderID)
	}
	s.record(ctx, c, action)
}

func (s *Service) record(ctx context.Context, c *DeliveryChallan, action string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "delivery_challan",
		EntityID: c.ID,
		Meta:     map[string]any{"deliveryOrderId": c.DeliveryOrderID},
	}); err != nil {
		s.logger.Error("record audit failed", slog.Any("error", err), slog.String("action", action))
	}
}

// lockChallan takes the order lock first and then the challan lock, the
// order every quantity mutation follows.
func lockChallan(ctx context.Context, tx TxRepository, id string) (*orders.DeliveryOrder, *DeliveryChallan, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil, ErrMissingID
	}
	c, err := tx.GetChallan(ctx, id, false)
	if err != nil {
		return nil, nil, fmt.Errorf("get delivery challan: %w", err)
	}
	order, err := tx.Orders().LockOrder(ctx, c.DeliveryOrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("get delivery order: %w", err)
	}
	c, err = tx.GetChallan(ctx, id, true)
	if err != nil {
		return nil, nil, fmt.Errorf("get delivery challan: %w", err)
	}
	return order, c, nil
}

func newLedger(order *orders.DeliveryOrder) *reconcile.Ledger {
	ledger := reconcile.NewLedger()
	for _, sec := range order.Sections {
		for _, it := range sec.Items {
			ledger.Set(it.ID, it.Line())
		}
	}
	return ledger
}

// settle checks the ledger and writes the touched lines back to the order.
func settle(ctx context.Context, tx TxRepository, order *orders.DeliveryOrder, ledger *reconcile.Ledger, now time.Time) error {
	if err := ledger.Check(); err != nil {
		if errors.Is(err, reconcile.ErrCapacityExceeded) {
			return fmt.Errorf("%w: %v", ErrCapacityExceeded, err)
		}
		return fmt.Errorf("reconcile order quantities: %w", err)
	}
	touched := ledger.Touched()
	if len(touched) == 0 {
		return nil
	}
	for _, id := range touched {
		item, _ := order.ItemByID(id)
		line, _ := ledger.Line(id)
		item.SetLine(line)
	}
	order.UpdatedAt = now.Unix()
	order.Recalculate(now)
	if err := tx.Orders().SaveQuantities(ctx, order); err != nil {
		return fmt.Errorf("save order quantities: %w", err)
	}
	return nil
}

func checkTransport(ctx context.Context, tx TxRepository, current *DeliveryChallan, req *DeliveryChallan) error {
	if req.TransportationCompanyID == nil {
		return ValidateTransport(req, nil, false)
	}
	ref, err := tx.TransportCompany(ctx, *req.TransportationCompanyID)
	if err != nil {
		return fmt.Errorf("get transportation company: %w", err)
	}
	held := current.TransportationCompanyID != nil && *current.TransportationCompanyID == ref.ID
	return ValidateTransport(req, ref, held)
}

// normalizeRefs treats blank optional references as absent.
func normalizeRefs(c *DeliveryChallan) {
	for _, ref := range []**string{&c.TransportationCompanyID, &c.VehicleID, &c.DriverID} {
		if *ref != nil && strings.TrimSpace(**ref) == "" {
			*ref = nil
		}
	}
}

func filterHash(req ListRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

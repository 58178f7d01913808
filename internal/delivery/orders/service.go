package orders

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solutions-liquify/tms/internal/platform/cache"
	"github.com/solutions-liquify/tms/reconcile"
	"github.com/solutions-liquify/tms/internal/shared"
)

// CacheNamespace versions every cached delivery listing.
const CacheNamespace = "delivery"

const searchHitLimit = 1000

// ChangeNotifier is told about committed order changes.
type ChangeNotifier interface {
	OrderChanged(ctx context.Context, orderID string)
}

// Searcher resolves free-text queries to order ids.
type Searcher interface {
	SearchOrderIDs(ctx context.Context, query string, limit int) ([]string, error)
}

// Auditor records business events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for delivery orders.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	notifier ChangeNotifier
	searcher Searcher
	cache    *cache.Versioned
	audit    Auditor
	now      func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetNotifier sets the hook run after committed changes.
func (s *Service) SetNotifier(n ChangeNotifier) { s.notifier = n }

// SetSearcher enables full-text search for list requests.
func (s *Service) SetSearcher(sr Searcher) { s.searcher = sr }

// SetCache enables cached list responses.
func (s *Service) SetCache(c *cache.Versioned) { s.cache = c }

// SetAuditor enables audit records.
func (s *Service) SetAuditor(a Auditor) { s.audit = a }

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// Create validates and persists a new delivery order. Client supplied ids,
// quantities other than the ordered amount, and totals are ignored.
func (s *Service) Create(ctx context.Context, req DeliveryOrder) (*DeliveryOrder, error) {
	if err := ValidateOrder(&req); err != nil {
		return nil, err
	}
	now := s.now()
	order := prepareCreate(req, now)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		party, err := tx.Party(ctx, order.PartyID)
		if err != nil {
			return fmt.Errorf("get party: %w", err)
		}
		if !party.Active {
			return ErrPartyInactive
		}
		if err := checkReferences(ctx, tx, &order, nil); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return fmt.Errorf("create delivery order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, order.ID, "delivery_order.create")
	return s.Get(ctx, order.ID)
}

// Update replaces the section and item tree of an order.
func (s *Service) Update(ctx context.Context, req DeliveryOrder) (*DeliveryOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := s.UpdateTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, req.ID, "delivery_order.update")
	return s.Get(ctx, req.ID)
}

// UpdateTx applies a full-document update inside a caller owned transaction.
// The caller is responsible for notifying once the transaction commits.
func (s *Service) UpdateTx(ctx context.Context, tx TxRepository, req DeliveryOrder) (*DeliveryOrder, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, ErrMissingID
	}
	if err := ValidateOrder(&req); err != nil {
		return nil, err
	}

	existing, err := tx.LockOrder(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("get delivery order: %w", err)
	}
	if existing.Status == StatusCancelled {
		return nil, ErrCannotEdit
	}

	now := s.now()
	order := req
	if err := mergeUpdate(existing, &order, now); err != nil {
		return nil, err
	}

	if order.PartyID != existing.PartyID {
		party, err := tx.Party(ctx, order.PartyID)
		if err != nil {
			return nil, fmt.Errorf("get party: %w", err)
		}
		if !party.Active {
			return nil, ErrPartyInactive
		}
	}
	if err := checkReferences(ctx, tx, &order, existing); err != nil {
		return nil, err
	}
	if err := tx.ReplaceTree(ctx, &order); err != nil {
		return nil, fmt.Errorf("update delivery order: %w", err)
	}
	return &order, nil
}

// Get retrieves an order with statuses derived at the current time.
func (s *Service) Get(ctx context.Context, id string) (*DeliveryOrder, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get delivery order: %w", err)
	}
	order.Recalculate(s.now())
	return order, nil
}

// List returns a page of order records.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Record, shared.Pagination, error) {
	if err := ValidateListRequest(req); err != nil {
		return nil, shared.Pagination{}, err
	}
	req.Page, req.Size = shared.NormalizePage(req.Page, req.Size)
	req.IDs = nil

	if s.searcher != nil && strings.TrimSpace(req.Search) != "" {
		ids, err := s.searcher.SearchOrderIDs(ctx, req.Search, searchHitLimit)
		if err != nil {
			s.logger.Warn("search delivery orders failed, falling back to database", slog.Any("error", err))
		} else {
			req.IDs = ids
			if req.IDs == nil {
				req.IDs = []string{}
			}
		}
	}

	var result ListResult
	load := func(ctx context.Context) (any, error) {
		records, total, err := s.repo.List(ctx, req)
		if err != nil {
			return nil, err
		}
		return ListResult{Records: records, Total: total}, nil
	}

	if s.cache != nil && req.IDs == nil {
		key, err := s.cache.BuildKey(ctx, CacheNamespace, "orders", filterHash(req))
		if err == nil {
			if err := s.cache.FetchJSON(ctx, key, &result, load); err != nil {
				return nil, shared.Pagination{}, fmt.Errorf("list delivery orders: %w", err)
			}
			return result.Records, shared.NewPagination(req.Page, req.Size, result.Total), nil
		}
		s.logger.Warn("build delivery cache key failed", slog.Any("error", err))
	}

	v, err := load(ctx)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list delivery orders: %w", err)
	}
	result = v.(ListResult)
	return result.Records, shared.NewPagination(req.Page, req.Size, result.Total), nil
}

// ListItems returns picker metadata for one order.
func (s *Service) ListItems(ctx context.Context, orderID string) ([]ItemMetadata, error) {
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list delivery order items: %w", err)
	}
	now := s.now()
	for i := range items {
		deriveMetadata(&items[i], now)
	}
	return items, nil
}

// ListPendingItems returns undelivered items across open orders.
func (s *Service) ListPendingItems(ctx context.Context, req PendingItemsRequest) ([]PendingItem, shared.Pagination, error) {
	page, size := shared.NormalizePage(req.Page, req.Size)
	items, total, err := s.repo.ListPendingItems(ctx, page, size)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list pending items: %w", err)
	}
	now := s.now()
	for i := range items {
		deriveMetadata(&items[i].ItemMetadata, now)
	}
	return items, shared.NewPagination(page, size, total), nil
}

// Cancel cancels an order that has no active challans. Cancellation is terminal.
func (s *Service) Cancel(ctx context.Context, id string) (*DeliveryOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("get delivery order: %w", err)
		}
		if order.Status == StatusCancelled {
			return ErrCannotEdit
		}
		open, err := tx.CountOpenChallans(ctx, id)
		if err != nil {
			return fmt.Errorf("count challans: %w", err)
		}
		if open > 0 {
			return ErrCannotCancel
		}
		return tx.SetStatus(ctx, id, StatusCancelled, s.now().Unix())
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, id, "delivery_order.cancel")
	return s.Get(ctx, id)
}

// OverdueItemCount counts late undelivered items across open orders.
func (s *Service) OverdueItemCount(ctx context.Context) (int, error) {
	return s.repo.OverdueItemCount(ctx, s.now().Unix())
}

// ListIDs pages through order ids for the search reindex.
func (s *Service) ListIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	return s.repo.ListIDs(ctx, afterID, limit)
}

// Notify runs the post-commit hooks for an order changed outside this service.
func (s *Service) Notify(ctx context.Context, orderID, action string) {
	s.changed(ctx, orderID, action)
}

func (s *Service) changed(ctx context.Context, orderID, action string) {
	if s.notifier != nil {
		s.notifier.OrderChanged(ctx, orderID)
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Action:   action,
			Entity:   "delivery_order",
			EntityID: orderID,
		}); err != nil {
			s.logger.Error("record audit failed", slog.Any("error", err), slog.String("action", action))
		}
	}
}

func prepareCreate(req DeliveryOrder, now time.Time) DeliveryOrder {
	order := req
	order.ID = uuid.NewString()
	order.Status = StatusPending
	order.CreatedAt = now.Unix()
	order.UpdatedAt = order.CreatedAt
	order.Sections = make([]Section, len(req.Sections))
	for si, sec := range req.Sections {
		sec.ID = uuid.NewString()
		items := make([]Item, len(sec.Items))
		for ii, it := range sec.Items {
			it.ID = uuid.NewString()
			it.DeliveredQuantity = decimal.Zero
			it.InProgressQuantity = decimal.Zero
			it.AssociatedChallanItems = []AssociatedChallanItem{}
			items[ii] = it
		}
		sec.Items = items
		order.Sections[si] = sec
	}
	order.Recalculate(now)
	return order
}

// mergeUpdate carries server-held state from existing into req and enforces
// the update rules. req is modified in place.
func mergeUpdate(existing, req *DeliveryOrder, now time.Time) error {
	existingSections := make(map[string]Section, len(existing.Sections))
	existingItems := make(map[string]Item)
	for _, sec := range existing.Sections {
		existingSections[sec.ID] = sec
		for _, it := range sec.Items {
			existingItems[it.ID] = it
		}
	}

	kept := make(map[string]struct{}, len(existingItems))
	keptSections := make(map[string]struct{}, len(existingSections))
	sections := make([]Section, len(req.Sections))
	for si, sec := range req.Sections {
		if sec.ID == "" {
			sec.ID = uuid.NewString()
		} else if prev, ok := existingSections[sec.ID]; !ok {
			return fmt.Errorf("section %d: %w", si+1, ErrSectionNotFound)
		} else if _, dup := keptSections[sec.ID]; dup {
			return fmt.Errorf("section %d: %w", si+1, ErrDuplicateSection)
		} else if len(prev.Items) > 0 && FoldDistrict(prev.District) != FoldDistrict(sec.District) {
			return fmt.Errorf("section %q: %w", prev.District, ErrDistrictLocked)
		}

		items := make([]Item, len(sec.Items))
		for ii, it := range sec.Items {
			if it.ID == "" {
				it.ID = uuid.NewString()
				it.DeliveredQuantity = decimal.Zero
				it.InProgressQuantity = decimal.Zero
				it.AssociatedChallanItems = []AssociatedChallanItem{}
				items[ii] = it
				continue
			}
			prev, ok := existingItems[it.ID]
			if !ok {
				return fmt.Errorf("section %d item %d: %w", si+1, ii+1, ErrItemNotFound)
			}
			if _, dup := kept[it.ID]; dup {
				return fmt.Errorf("section %d item %d: %w", si+1, ii+1, ErrDuplicateItem)
			}
			if inUse(prev) && FoldDistrict(prev.District) != FoldDistrict(sec.District) {
				return fmt.Errorf("section %d item %d: %w", si+1, ii+1, ErrDistrictLocked)
			}
			it.DeliveredQuantity = prev.DeliveredQuantity
			it.InProgressQuantity = prev.InProgressQuantity
			it.AssociatedChallanItems = prev.AssociatedChallanItems
			if it.Quantity.LessThan(prev.Line().Committed()) {
				return fmt.Errorf("section %d item %d: %w (%s committed)", si+1, ii+1, ErrQuantityBelowCommitted, prev.Line().Committed())
			}
			kept[it.ID] = struct{}{}
			items[ii] = it
		}
		sec.Items = items
		keptSections[sec.ID] = struct{}{}
		sections[si] = sec
	}

	for id, prev := range existingItems {
		if _, ok := kept[id]; ok {
			continue
		}
		if inUse(prev) {
			return fmt.Errorf("item %s: %w", id, ErrItemInUse)
		}
	}

	req.Sections = sections
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = now.Unix()
	req.Status = existing.Status
	req.Recalculate(now)
	return nil
}

func inUse(it Item) bool {
	return len(it.AssociatedChallanItems) > 0 || !it.Line().Committed().IsZero()
}

// checkReferences rejects newly referenced inactive locations and materials.
// References already held by existing stay valid.
func checkReferences(ctx context.Context, tx TxRepository, order, existing *DeliveryOrder) error {
	held := make(map[string]struct{})
	if existing != nil {
		for _, sec := range existing.Sections {
			for _, it := range sec.Items {
				held[it.LocationID] = struct{}{}
				held[it.MaterialID] = struct{}{}
			}
		}
	}
	var locations, materials []string
	seen := make(map[string]struct{})
	for _, sec := range order.Sections {
		for _, it := range sec.Items {
			if _, ok := held[it.LocationID]; !ok {
				if _, dup := seen[it.LocationID]; !dup {
					locations = append(locations, it.LocationID)
					seen[it.LocationID] = struct{}{}
				}
			}
			if _, ok := held[it.MaterialID]; !ok {
				if _, dup := seen[it.MaterialID]; !dup {
					materials = append(materials, it.MaterialID)
					seen[it.MaterialID] = struct{}{}
				}
			}
		}
	}
	inactive, err := tx.InactiveReferences(ctx, locations, materials)
	if err != nil {
		return fmt.Errorf("check references: %w", err)
	}
	if len(inactive) > 0 {
		return fmt.Errorf("%w: %s", ErrInactiveReference, strings.Join(inactive, ", "))
	}
	return nil
}

func deriveMetadata(m *ItemMetadata, now time.Time) {
	line := reconcile.Line{Quantity: m.Quantity, Delivered: m.DeliveredQuantity, InProgress: m.InProgressQuantity}
	m.PendingQuantity = line.Pending()
	m.Status = reconcile.ItemStatus(line, m.DueDate, now)
}

func filterHash(req ListRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

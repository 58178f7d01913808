package orders

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// mockRepository is an in-memory Repository and TxRepository.
type mockRepository struct {
	orders       map[string]*DeliveryOrder
	parties      map[string]PartyRef
	inactiveRefs map[string]bool
	openChallans map[string]int
	names        map[string]string
	lockErr      error
	replaceErr   error
	listCalls    int
	committed    int
	rolledBack   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:       make(map[string]*DeliveryOrder),
		parties:      make(map[string]PartyRef),
		inactiveRefs: make(map[string]bool),
		openChallans: make(map[string]int),
		names:        make(map[string]string),
	}
}

func cloneOrder(o *DeliveryOrder) *DeliveryOrder {
	c := *o
	c.Sections = make([]Section, len(o.Sections))
	for si, s := range o.Sections {
		cs := s
		cs.Items = make([]Item, len(s.Items))
		for ii, it := range s.Items {
			ci := it
			ci.AssociatedChallanItems = append([]AssociatedChallanItem{}, it.AssociatedChallanItems...)
			cs.Items[ii] = ci
		}
		c.Sections[si] = cs
	}
	return &c
}

func (m *mockRepository) Get(_ context.Context, id string) (*DeliveryOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneOrder(o)
	if p, ok := m.parties[c.PartyID]; ok {
		c.PartyName = p.Name
	}
	for si := range c.Sections {
		for ii := range c.Sections[si].Items {
			it := &c.Sections[si].Items[ii]
			it.LocationName = m.names[it.LocationID]
			it.MaterialName = m.names[it.MaterialID]
		}
	}
	return c, nil
}

func (m *mockRepository) List(_ context.Context, req ListRequest) ([]Record, int, error) {
	m.listCalls++
	var all []Record
	for _, o := range m.orders {
		if len(req.Statuses) > 0 && !containsStatus(req.Statuses, o.Status) {
			continue
		}
		if len(req.PartyIDs) > 0 && !containsString(req.PartyIDs, o.PartyID) {
			continue
		}
		if req.IDs != nil && !containsString(req.IDs, o.ID) {
			continue
		}
		if req.IDs == nil && req.Search != "" && !strings.Contains(strings.ToLower(o.ContractID), strings.ToLower(req.Search)) {
			continue
		}
		all = append(all, ToRecord(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ContractID < all[j].ContractID })
	total := len(all)
	start := (req.Page - 1) * req.Size
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total {
		end = total
	}
	return append([]Record{}, all[start:end]...), total, nil
}

func (m *mockRepository) ListItems(_ context.Context, orderID string) ([]ItemMetadata, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	var out []ItemMetadata
	for _, s := range o.Sections {
		for _, it := range s.Items {
			out = append(out, ItemMetadata{
				ID:                 it.ID,
				District:           it.District,
				Quantity:           it.Quantity,
				DueDate:            it.DueDate,
				DeliveredQuantity:  it.DeliveredQuantity,
				InProgressQuantity: it.InProgressQuantity,
			})
		}
	}
	return out, nil
}

func (m *mockRepository) ListPendingItems(_ context.Context, page, size int) ([]PendingItem, int, error) {
	var out []PendingItem
	for _, o := range m.orders {
		if o.Status == StatusCancelled {
			continue
		}
		for _, s := range o.Sections {
			for _, it := range s.Items {
				if it.DeliveredQuantity.LessThan(it.Quantity) {
					out = append(out, PendingItem{
						ItemMetadata:    ItemMetadata{ID: it.ID, Quantity: it.Quantity, DueDate: it.DueDate, DeliveredQuantity: it.DeliveredQuantity, InProgressQuantity: it.InProgressQuantity},
						DeliveryOrderID: o.ID,
						ContractID:      o.ContractID,
					})
				}
			}
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) OverdueItemCount(_ context.Context, now int64) (int, error) {
	count := 0
	for _, o := range m.orders {
		if o.Status == StatusCancelled {
			continue
		}
		for _, s := range o.Sections {
			for _, it := range s.Items {
				if it.DeliveredQuantity.LessThan(it.Quantity) && it.DueDate != nil && *it.DueDate < now {
					count++
				}
			}
		}
	}
	return count, nil
}

func (m *mockRepository) ListIDs(_ context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	for id := range m.orders {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// WithTx snapshots the store and restores it when fn fails.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[string]*DeliveryOrder, len(m.orders))
	for id, o := range m.orders {
		snapshot[id] = cloneOrder(o)
	}
	if err := fn(ctx, m); err != nil {
		m.orders = snapshot
		m.rolledBack++
		return err
	}
	m.committed++
	return nil
}

func (m *mockRepository) LockOrder(ctx context.Context, id string) (*DeliveryOrder, error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	return m.Get(ctx, id)
}

func (m *mockRepository) Party(_ context.Context, id string) (*PartyRef, error) {
	p, ok := m.parties[id]
	if !ok {
		return nil, ErrPartyNotFound
	}
	return &p, nil
}

func (m *mockRepository) InactiveReferences(_ context.Context, locationIDs, materialIDs []string) ([]string, error) {
	var out []string
	for _, id := range append(append([]string{}, locationIDs...), materialIDs...) {
		if m.inactiveRefs[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockRepository) InsertOrder(_ context.Context, o *DeliveryOrder) error {
	if _, ok := m.orders[o.ID]; ok {
		return errors.New("duplicate id")
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepository) ReplaceTree(_ context.Context, o *DeliveryOrder) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepository) SaveQuantities(_ context.Context, o *DeliveryOrder) error {
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *mockRepository) CountOpenChallans(_ context.Context, orderID string) (int, error) {
	return m.openChallans[orderID], nil
}

func (m *mockRepository) SetStatus(_ context.Context, id string, status Status, updatedAt int64) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	return nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, v Status) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	ids []string
}

func (n *recordingNotifier) OrderChanged(_ context.Context, orderID string) {
	n.ids = append(n.ids, orderID)
}

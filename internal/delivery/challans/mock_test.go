package challans

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/solutions-liquify/tms/internal/delivery/orders"
)

// fakeStore is an in-memory Repository, TxRepository and orders.TxRepository
// sharing one snapshot-on-transaction state.
type fakeStore struct {
	orders     map[string]*orders.DeliveryOrder
	challans   map[string]*DeliveryChallan
	transports map[string]*TransportRef
	keys       map[string]bool
	insertErr  error
	committed  int
	rolledBack int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:     make(map[string]*orders.DeliveryOrder),
		challans:   make(map[string]*DeliveryChallan),
		transports: make(map[string]*TransportRef),
		keys:       make(map[string]bool),
	}
}

func cloneOrder(o *orders.DeliveryOrder) *orders.DeliveryOrder {
	c := *o
	c.Sections = make([]orders.Section, len(o.Sections))
	for si, s := range o.Sections {
		cs := s
		cs.Items = make([]orders.Item, len(s.Items))
		for ii, it := range s.Items {
			ci := it
			ci.AssociatedChallanItems = append([]orders.AssociatedChallanItem{}, it.AssociatedChallanItems...)
			cs.Items[ii] = ci
		}
		c.Sections[si] = cs
	}
	return &c
}

func cloneChallan(c *DeliveryChallan) *DeliveryChallan {
	out := *c
	out.Items = append([]Item{}, c.Items...)
	return &out
}

func (f *fakeStore) getOrder(id string) (*orders.DeliveryOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	c := cloneOrder(o)
	for si := range c.Sections {
		for ii := range c.Sections[si].Items {
			c.Sections[si].Items[ii].AssociatedChallanItems = []orders.AssociatedChallanItem{}
		}
	}
	for _, ch := range f.sortedChallans() {
		if ch.DeliveryOrderID != id {
			continue
		}
		for _, it := range ch.Items {
			if item, ok := c.ItemByID(it.DeliveryOrderItemID); ok {
				item.AssociatedChallanItems = append(item.AssociatedChallanItems, orders.AssociatedChallanItem{
					ID:                 it.ID,
					DeliveryChallanID:  ch.ID,
					DeliveringQuantity: it.DeliveringQuantity,
					Status:             ch.Status,
				})
			}
		}
	}
	return c, nil
}

func (f *fakeStore) sortedChallans() []*DeliveryChallan {
	out := make([]*DeliveryChallan, 0, len(f.challans))
	for _, c := range f.challans {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeStore) getChallan(id string) (*DeliveryChallan, error) {
	c, ok := f.challans[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneChallan(c)
	if o, ok := f.orders[c.DeliveryOrderID]; ok {
		out.ContractID = o.ContractID
		out.PartyName = o.PartyName
		for i := range out.Items {
			if src, ok := o.ItemByID(out.Items[i].DeliveryOrderItemID); ok {
				out.Items[i].Describe(*src)
			}
		}
	}
	return out, nil
}

// Repository

func (f *fakeStore) Get(_ context.Context, id string) (*DeliveryChallan, error) {
	return f.getChallan(id)
}

func (f *fakeStore) List(_ context.Context, req ListRequest) ([]Record, int, error) {
	var all []Record
	for _, c := range f.sortedChallans() {
		if len(req.DeliveryOrderIDs) > 0 && !contains(req.DeliveryOrderIDs, c.DeliveryOrderID) {
			continue
		}
		if len(req.Statuses) > 0 && !containsStatus(req.Statuses, c.Status) {
			continue
		}
		o := f.orders[c.DeliveryOrderID]
		if req.Search != "" && !strings.Contains(strings.ToLower(o.ContractID), strings.ToLower(req.Search)) {
			continue
		}
		all = append(all, Record{
			ID:                      c.ID,
			DeliveryOrderID:         c.DeliveryOrderID,
			ContractID:              o.ContractID,
			PartyName:               o.PartyName,
			DateOfChallan:           c.DateOfChallan,
			Status:                  c.Status,
			TotalDeliveringQuantity: c.TotalDeliveringQuantity,
		})
	}
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

// WithTx snapshots the store and restores it when fn fails.
func (f *fakeStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	ordersSnap := make(map[string]*orders.DeliveryOrder, len(f.orders))
	for id, o := range f.orders {
		ordersSnap[id] = cloneOrder(o)
	}
	challansSnap := make(map[string]*DeliveryChallan, len(f.challans))
	for id, c := range f.challans {
		challansSnap[id] = cloneChallan(c)
	}
	keysSnap := make(map[string]bool, len(f.keys))
	for k, v := range f.keys {
		keysSnap[k] = v
	}
	if err := fn(ctx, f); err != nil {
		f.orders, f.challans, f.keys = ordersSnap, challansSnap, keysSnap
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

// TxRepository

func (f *fakeStore) Orders() orders.TxRepository { return fakeOrdersTx{f} }

func (f *fakeStore) GetChallan(_ context.Context, id string, _ bool) (*DeliveryChallan, error) {
	return f.getChallan(id)
}

func (f *fakeStore) InsertChallan(_ context.Context, c *DeliveryChallan) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.challans[c.ID]; ok {
		return errors.New("duplicate id")
	}
	f.challans[c.ID] = cloneChallan(c)
	return nil
}

func (f *fakeStore) SaveChallan(_ context.Context, c *DeliveryChallan) error {
	prev, ok := f.challans[c.ID]
	if !ok {
		return ErrNotFound
	}
	next := cloneChallan(c)
	next.Status = prev.Status
	f.challans[c.ID] = next
	return nil
}

func (f *fakeStore) SetStatus(_ context.Context, id string, status Status, updatedAt int64) error {
	c, ok := f.challans[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = updatedAt
	return nil
}

func (f *fakeStore) TransportCompany(_ context.Context, id string) (*TransportRef, error) {
	t, ok := f.transports[id]
	if !ok {
		return nil, ErrTransportNotFound
	}
	out := *t
	return &out, nil
}

func (f *fakeStore) ClaimIdempotencyKey(_ context.Context, key string) error {
	if f.keys[key] {
		return ErrDuplicateRequest
	}
	f.keys[key] = true
	return nil
}

// fakeOrdersTx is the order side of a fakeStore transaction.
type fakeOrdersTx struct {
	f *fakeStore
}

func (o fakeOrdersTx) LockOrder(_ context.Context, id string) (*orders.DeliveryOrder, error) {
	return o.f.getOrder(id)
}

func (o fakeOrdersTx) Party(_ context.Context, id string) (*orders.PartyRef, error) {
	return &orders.PartyRef{ID: id, Name: "Krishi Seva Kendra", Active: true}, nil
}

func (o fakeOrdersTx) InactiveReferences(context.Context, []string, []string) ([]string, error) {
	return nil, nil
}

func (o fakeOrdersTx) InsertOrder(_ context.Context, d *orders.DeliveryOrder) error {
	o.f.orders[d.ID] = cloneOrder(d)
	return nil
}

func (o fakeOrdersTx) ReplaceTree(_ context.Context, d *orders.DeliveryOrder) error {
	if _, ok := o.f.orders[d.ID]; !ok {
		return orders.ErrNotFound
	}
	o.f.orders[d.ID] = cloneOrder(d)
	return nil
}

func (o fakeOrdersTx) SaveQuantities(_ context.Context, d *orders.DeliveryOrder) error {
	o.f.orders[d.ID] = cloneOrder(d)
	return nil
}

func (o fakeOrdersTx) CountOpenChallans(_ context.Context, orderID string) (int, error) {
	count := 0
	for _, c := range o.f.challans {
		if c.DeliveryOrderID == orderID && c.Status != StatusCancelled {
			count++
		}
	}
	return count, nil
}

func (o fakeOrdersTx) SetStatus(_ context.Context, id string, status orders.Status, updatedAt int64) error {
	d, ok := o.f.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = updatedAt
	return nil
}

// orderService serves order reads from the fake store and delegates the
// transactional update to the real order service.
type orderService struct {
	*orders.Service
	store *fakeStore
}

func (s orderService) Get(_ context.Context, id string) (*orders.DeliveryOrder, error) {
	return s.store.getOrder(id)
}

type recordingNotifier struct {
	ids []string
}

func (n *recordingNotifier) OrderChanged(_ context.Context, orderID string) {
	n.ids = append(n.ids, orderID)
}

func contains(list []string, v string) bool {
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

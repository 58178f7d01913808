// Package draft holds the pure reducers behind the order and challan
// editing forms. Each reducer returns a new value, leaves its input
// untouched and re-runs the same aggregation the server applies on save.
package draft

import (
	"errors"
	"fmt"
	"time"

	"github.com/solutions-liquify/tms/model"
)

// ErrDistrictLocked mirrors the server rule that a section with items keeps
// its district.
var ErrDistrictLocked = errors.New("draft: district cannot change once the section has items")

// SectionDistrictLocked reports whether the section's district field must be
// read-only.
func SectionDistrictLocked(s model.Section) bool {
	return len(s.Items) > 0
}

// ApplyOrderChange sets the field at path and recomputes the order.
//
// Paths: contractId, partyId, partyName, dateOfContract,
// deliveryOrderSections[i].district and
// deliveryOrderSections[i].deliveryOrderItems[j].<field> where field is one
// of taluka, locationId, locationName, materialId, materialName, quantity,
// rate or dueDate.
func ApplyOrderChange(order model.DeliveryOrder, path string, value any) (model.DeliveryOrder, error) {
	return ApplyOrderChangeAt(time.Now(), order, path, value)
}

// ApplyOrderChangeAt is ApplyOrderChange with an explicit clock for the
// overdue status.
func ApplyOrderChangeAt(now time.Time, order model.DeliveryOrder, path string, value any) (model.DeliveryOrder, error) {
	segs, err := parsePath(path)
	if err != nil {
		return order, err
	}
	next := CloneOrder(order)
	if err := setOrderField(&next, segs, value); err != nil {
		return order, fmt.Errorf("%s: %w", path, err)
	}
	next.Recalculate(now)
	return next, nil
}

func setOrderField(o *model.DeliveryOrder, segs []segment, value any) error {
	head := segs[0]
	if len(segs) == 1 && head.index < 0 {
		var err error
		switch head.name {
		case "contractId":
			o.ContractID, err = toString(value)
		case "partyId":
			o.PartyID, err = toString(value)
		case "partyName":
			o.PartyName, err = toString(value)
		case "dateOfContract":
			o.DateOfContract, err = toUnix(value)
		default:
			return ErrUnknownPath
		}
		return err
	}
	if head.name != "deliveryOrderSections" || head.index < 0 || len(segs) < 2 {
		return ErrUnknownPath
	}
	if err := checkIndex(head.index, len(o.Sections)); err != nil {
		return err
	}
	return setSectionField(&o.Sections[head.index], segs[1:], value)
}

func setSectionField(s *model.Section, segs []segment, value any) error {
	head := segs[0]
	if len(segs) == 1 && head.name == "district" && head.index < 0 {
		district, err := toString(value)
		if err != nil {
			return err
		}
		if district != s.District && SectionDistrictLocked(*s) {
			return ErrDistrictLocked
		}
		s.District = district
		return nil
	}
	if head.name != "deliveryOrderItems" || head.index < 0 || len(segs) != 2 || segs[1].index >= 0 {
		return ErrUnknownPath
	}
	if err := checkIndex(head.index, len(s.Items)); err != nil {
		return err
	}
	it := &s.Items[head.index]
	var err error
	switch segs[1].name {
	case "taluka":
		it.Taluka, err = toString(value)
	case "locationId":
		it.LocationID, err = toString(value)
	case "locationName":
		it.LocationName, err = toString(value)
	case "materialId":
		it.MaterialID, err = toString(value)
	case "materialName":
		it.MaterialName, err = toString(value)
	case "quantity":
		it.Quantity, err = toDecimal(value)
	case "rate":
		it.Rate, err = toDecimal(value)
	case "dueDate":
		it.DueDate, err = toUnix(value)
	default:
		return ErrUnknownPath
	}
	return err
}

// AddSection appends an empty section for district.
func AddSection(order model.DeliveryOrder, district string) model.DeliveryOrder {
	next := CloneOrder(order)
	next.Sections = append(next.Sections, model.Section{District: district})
	next.Recalculate(time.Now())
	return next
}

// RemoveSection drops section i with its items.
func RemoveSection(order model.DeliveryOrder, i int) (model.DeliveryOrder, error) {
	if err := checkIndex(i, len(order.Sections)); err != nil {
		return order, err
	}
	next := CloneOrder(order)
	next.Sections = append(next.Sections[:i], next.Sections[i+1:]...)
	next.Recalculate(time.Now())
	return next, nil
}

// AddOrderItem appends item to section i. The item takes the section's
// district.
func AddOrderItem(order model.DeliveryOrder, section int, item model.Item) (model.DeliveryOrder, error) {
	if err := checkIndex(section, len(order.Sections)); err != nil {
		return order, err
	}
	next := CloneOrder(order)
	item.AssociatedChallanItems = nil
	next.Sections[section].Items = append(next.Sections[section].Items, item)
	next.Recalculate(time.Now())
	return next, nil
}

// RemoveOrderItem drops item j of section i.
func RemoveOrderItem(order model.DeliveryOrder, section, item int) (model.DeliveryOrder, error) {
	if err := checkIndex(section, len(order.Sections)); err != nil {
		return order, err
	}
	if err := checkIndex(item, len(order.Sections[section].Items)); err != nil {
		return order, err
	}
	next := CloneOrder(order)
	items := next.Sections[section].Items
	next.Sections[section].Items = append(items[:item], items[item+1:]...)
	next.Recalculate(time.Now())
	return next, nil
}

// CloneOrder deep-copies the order tree.
func CloneOrder(o model.DeliveryOrder) model.DeliveryOrder {
	out := o
	out.DateOfContract = cloneInt64(o.DateOfContract)
	out.Sections = make([]model.Section, len(o.Sections))
	for si, s := range o.Sections {
		cs := s
		cs.Items = make([]model.Item, len(s.Items))
		for ii, it := range s.Items {
			ci := it
			ci.DueDate = cloneInt64(it.DueDate)
			if it.AssociatedChallanItems != nil {
				ci.AssociatedChallanItems = append([]model.AssociatedChallanItem(nil), it.AssociatedChallanItems...)
			}
			cs.Items[ii] = ci
		}
		out.Sections[si] = cs
	}
	return out
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

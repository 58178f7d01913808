package orders

import "time"

// Mapper functions for converting between layers:
// DeliveryOrder → Record (list row, search document)
// Item → ItemMetadata (challan item picker)

// ToRecord maps an order tree to its list row.
func ToRecord(o *DeliveryOrder) Record {
	return Record{
		ID:                           o.ID,
		ContractID:                   o.ContractID,
		PartyID:                      o.PartyID,
		PartyName:                    o.PartyName,
		Status:                       o.Status,
		GrandTotalQuantity:           o.GrandTotalQuantity,
		GrandTotalDeliveredQuantity:  o.GrandTotalDeliveredQuantity,
		GrandTotalInProgressQuantity: o.GrandTotalInProgressQuantity,
		DateOfContract:               o.DateOfContract,
	}
}

// ToItemMetadata maps an item to picker metadata with derived fields filled in.
func ToItemMetadata(it Item, now time.Time) ItemMetadata {
	m := ItemMetadata{
		ID:                 it.ID,
		District:           it.District,
		Taluka:             it.Taluka,
		LocationName:       it.LocationName,
		MaterialName:       it.MaterialName,
		Quantity:           it.Quantity,
		Rate:               it.Rate,
		DueDate:            it.DueDate,
		DeliveredQuantity:  it.DeliveredQuantity,
		InProgressQuantity: it.InProgressQuantity,
	}
	deriveMetadata(&m, now)
	return m
}

package shared

// Delivery permissions.
const (
	PermDeliveryOrderView   = "delivery.order.view"
	PermDeliveryOrderEdit   = "delivery.order.edit"
	PermDeliveryOrderCancel = "delivery.order.cancel"

	PermDeliveryChallanView    = "delivery.challan.view"
	PermDeliveryChallanEdit    = "delivery.challan.edit"
	PermDeliveryChallanDeliver = "delivery.challan.deliver"
	PermDeliveryChallanCancel  = "delivery.challan.cancel"
)

// Master data permissions. Lifecycle covers activate and deactivate.
const (
	PermMasterDataView      = "masterdata.view"
	PermMasterDataEdit      = "masterdata.edit"
	PermMasterDataLifecycle = "masterdata.lifecycle"

	PermEmployeesView = "employees.view"
	PermEmployeesEdit = "employees.edit"

	PermFilesView   = "files.view"
	PermFilesUpload = "files.upload"
)

// DeliveryScopes lists every delivery permission.
func DeliveryScopes() []string {
	return []string{
		PermDeliveryOrderView,
		PermDeliveryOrderEdit,
		PermDeliveryOrderCancel,
		PermDeliveryChallanView,
		PermDeliveryChallanEdit,
		PermDeliveryChallanDeliver,
		PermDeliveryChallanCancel,
	}
}

// MasterDataScopes lists every master data, employee and file permission.
func MasterDataScopes() []string {
	return []string{
		PermMasterDataView,
		PermMasterDataEdit,
		PermMasterDataLifecycle,
		PermEmployeesView,
		PermEmployeesEdit,
		PermFilesView,
		PermFilesUpload,
	}
}

// AllScopes lists every permission known to the service.
func AllScopes() []string {
	return append(DeliveryScopes(), MasterDataScopes()...)
}

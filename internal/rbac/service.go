package rbac

import (
	"sort"
	"strings"

	"github.com/solutions-liquify/tms/internal/shared"
)

// Service resolves the permissions granted to each employee role. Roles are
// fixed: ADMIN holds every permission, STAFF can view everything and operate
// deliveries but cannot manage employees or master data lifecycle.
type Service struct {
	grants map[string][]string
}

// NewService builds the role table.
func NewService() *Service {
	staff := []string{
		shared.PermDeliveryOrderView,
		shared.PermDeliveryOrderEdit,
		shared.PermDeliveryChallanView,
		shared.PermDeliveryChallanEdit,
		shared.PermDeliveryChallanDeliver,
		shared.PermDeliveryChallanCancel,
		shared.PermMasterDataView,
		shared.PermMasterDataEdit,
		shared.PermEmployeesView,
		shared.PermFilesView,
		shared.PermFilesUpload,
	}
	return &Service{grants: map[string][]string{
		shared.RoleAdmin: normalizePermissions(shared.AllScopes()),
		shared.RoleStaff: normalizePermissions(staff),
	}}
}

// Roles lists the known roles.
func (s *Service) Roles() []string {
	roles := make([]string, 0, len(s.grants))
	for role := range s.grants {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// EffectivePermissions returns the permissions granted to a role.
func (s *Service) EffectivePermissions(role string) []string {
	granted := s.grants[strings.ToUpper(strings.TrimSpace(role))]
	out := make([]string, len(granted))
	copy(out, granted)
	return out
}

// Can reports whether role holds perm.
func (s *Service) Can(role, perm string) bool {
	return hasAnyPermission(s.EffectivePermissions(role), normalizePermissions([]string{perm}))
}

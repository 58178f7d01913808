package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/shared"
)

// PermissionsHandler exposes the role table to clients.
type PermissionsHandler struct {
	service *Service
	rbac    Middleware
}

// NewPermissionsHandler constructs the handler.
func NewPermissionsHandler(service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{service: service, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermEmployeesEdit))
		r.Get("/", h.listRoles)
	})
}

type principalResponse struct {
	EmployeeID  string   `json:"employeeId"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h *PermissionsHandler) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, principalResponse{
		EmployeeID:  principal.EmployeeID,
		Role:        principal.Role,
		Permissions: h.service.EffectivePermissions(principal.Role),
	})
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]string)
	for _, role := range h.service.Roles() {
		out[role] = h.service.EffectivePermissions(role)
	}
	httpx.JSON(w, http.StatusOK, out)
}
